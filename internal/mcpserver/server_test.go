package mcpserver

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexjbarnes/basecamp-mcp/internal/auth"
	"github.com/alexjbarnes/basecamp-mcp/internal/basecamp"
	"github.com/alexjbarnes/basecamp-mcp/internal/config"
	"github.com/alexjbarnes/basecamp-mcp/internal/registry"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		UserAgent: "Test (test@example.com)",
		AccountID: "777",
		TokenPath: filepath.Join(t.TempDir(), "token.json"),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	flow := auth.NewFlow(cfg, logger, auth.Options{})
	require.NoError(t, flow.Store().Write(&auth.Token{
		AccessToken: "test-token",
		ExpiresAt:   time.Now().UnixMilli() + 3_600_000,
	}))

	client := basecamp.NewClient(cfg, flow, logger, basecamp.ClientOptions{})

	return New(client, registry.Default(), logger, "test")
}

func TestSafeToOriginal_CoversEveryAction(t *testing.T) {
	s := newTestServer(t)
	reg := registry.Default()

	mapping := s.SafeToOriginal()
	require.Len(t, mapping, len(reg.Names()))

	byOriginal := make(map[string]string, len(mapping))
	for safe, original := range mapping {
		assert.Regexp(t, `^sdk_`, safe)
		byOriginal[original] = safe
	}

	for _, name := range reg.Names() {
		assert.Contains(t, byOriginal, name)
	}

	assert.Equal(t, "projects.list", mapping["sdk_projects_list"])
	assert.Equal(t, "card_tables.get_enriched", mapping["sdk_card_tables_get_enriched"])
}

func TestRawToText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"json string unwraps", `"hello world"`, "hello world"},
		{"object pretty printed", `{"a":1}`, "{\n  \"a\": 1\n}"},
		{"malformed passes through", `{"a":`, `{"a":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rawToText(json.RawMessage(tt.raw)))
		})
	}
}

func TestImageResult(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("png-bytes"))

	t.Run("image payload becomes image content", func(t *testing.T) {
		data, err := json.Marshal(map[string]string{"base64": payload, "mimeType": "image/png"})
		require.NoError(t, err)

		result := imageResult(data)
		require.NotNil(t, result)
		require.Len(t, result.Content, 1)

		img, ok := result.Content[0].(*mcp.ImageContent)
		require.True(t, ok)
		assert.Equal(t, []byte("png-bytes"), img.Data)
		assert.Equal(t, "image/png", img.MIMEType)
	})

	t.Run("non-image mime stays text", func(t *testing.T) {
		data, err := json.Marshal(map[string]string{"base64": payload, "mimeType": "application/pdf"})
		require.NoError(t, err)

		assert.Nil(t, imageResult(data))
	})

	t.Run("no base64 field", func(t *testing.T) {
		assert.Nil(t, imageResult([]byte(`{"mimeType": "image/png"}`)))
	})

	t.Run("invalid base64", func(t *testing.T) {
		assert.Nil(t, imageResult([]byte(`{"base64": "!!not-base64!!", "mimeType": "image/png"}`)))
	})
}

func TestErrorResult(t *testing.T) {
	result := errorResult(assert.AnError)

	assert.True(t, result.IsError)
	require.Len(t, result.Content, 1)

	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "Error: ")
}
