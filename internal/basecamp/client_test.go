package basecamp

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexjbarnes/basecamp-mcp/internal/auth"
	"github.com/alexjbarnes/basecamp-mcp/internal/config"
	bcerrors "github.com/alexjbarnes/basecamp-mcp/internal/errors"
)

const testAccountID = "777"

// newTestClient builds a client against an httptest API with a pre-seeded
// fresh token and a pinned account id, so no request touches the identity
// provider.
func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		UserAgent: "Test (test@example.com)",
		AccountID: testAccountID,
		TokenPath: filepath.Join(t.TempDir(), "token.json"),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	flow := auth.NewFlow(cfg, logger, auth.Options{})
	require.NoError(t, flow.Store().Write(&auth.Token{
		AccessToken: "test-token",
		ExpiresAt:   time.Now().UnixMilli() + 3_600_000,
	}))

	client := NewClient(cfg, flow, logger, ClientOptions{APIBase: srv.URL})

	return client, srv
}

func jsonHandler(t *testing.T, check func(r *http.Request), body string) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = io.WriteString(w, body)
	})
}

func TestRequest_AccountScopedURLAndHeaders(t *testing.T) {
	var got *http.Request
	client, _ := newTestClient(t, jsonHandler(t, func(r *http.Request) {
		got = r.Clone(context.Background())
	}, `{"id": 1, "name": "HQ"}`))

	var out Project
	err := client.Request(context.Background(), http.MethodGet, "/projects/1.json", nil, &out)
	require.NoError(t, err)

	assert.Equal(t, "/"+testAccountID+"/projects/1.json", got.URL.Path)
	assert.Equal(t, "Bearer test-token", got.Header.Get("Authorization"))
	assert.Equal(t, "Test (test@example.com)", got.Header.Get("User-Agent"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, int64(1), out.ID)
	assert.Equal(t, "HQ", out.Name)
}

func TestRequest_LeadingSlashOptional(t *testing.T) {
	var path string
	client, _ := newTestClient(t, jsonHandler(t, func(r *http.Request) {
		path = r.URL.Path
	}, `[]`))

	var out []Project
	require.NoError(t, client.Request(context.Background(), http.MethodGet, "projects.json", nil, &out))
	assert.Equal(t, "/"+testAccountID+"/projects.json", path)
}

func TestRequest_QueryParameters(t *testing.T) {
	var query string
	client, _ := newTestClient(t, jsonHandler(t, func(r *http.Request) {
		query = r.URL.RawQuery
	}, `[]`))

	var out []Project
	err := client.Request(context.Background(), http.MethodGet, "/projects.json", &RequestOptions{
		Query: map[string]any{
			"status":  "archived",
			"page":    3,
			"skipped": nil,
		},
	}, &out)
	require.NoError(t, err)

	assert.Contains(t, query, "status=archived")
	assert.Contains(t, query, "page=3")
	assert.NotContains(t, query, "skipped")
}

func TestRequest_AbsoluteURLBypassesAccountScoping(t *testing.T) {
	var path string
	client, srv := newTestClient(t, jsonHandler(t, func(r *http.Request) {
		path = r.URL.Path
	}, `[]`))

	var out []Card
	err := client.Request(context.Background(), http.MethodGet,
		srv.URL+"/buckets/1/card_tables/lists/2/cards.json",
		&RequestOptions{Absolute: true}, &out)
	require.NoError(t, err)

	assert.Equal(t, "/buckets/1/card_tables/lists/2/cards.json", path)
}

func TestRequest_JSONBodyEncoding(t *testing.T) {
	var (
		contentType string
		bodyBytes   []byte
	)
	client, _ := newTestClient(t, jsonHandler(t, func(r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		bodyBytes, _ = io.ReadAll(r.Body)
	}, `{"id": 5}`))

	var out Project
	err := client.Request(context.Background(), http.MethodPost, "/projects.json", &RequestOptions{
		Body: map[string]string{"name": "New"},
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, "application/json", contentType)
	assert.JSONEq(t, `{"name":"New"}`, string(bodyBytes))
}

func TestRequest_StringBodyPassesThrough(t *testing.T) {
	var bodyBytes []byte
	client, _ := newTestClient(t, jsonHandler(t, func(r *http.Request) {
		bodyBytes, _ = io.ReadAll(r.Body)
	}, `{}`))

	err := client.Request(context.Background(), http.MethodPost, "/things.json", &RequestOptions{
		Body: `{"raw":true}`,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, `{"raw":true}`, string(bodyBytes))
}

func TestRequest_GetNeverCarriesBody(t *testing.T) {
	var bodyBytes []byte
	client, _ := newTestClient(t, jsonHandler(t, func(r *http.Request) {
		bodyBytes, _ = io.ReadAll(r.Body)
	}, `[]`))

	var out []Project
	err := client.Request(context.Background(), http.MethodGet, "/projects.json", &RequestOptions{
		Body: map[string]string{"ignored": "yes"},
	}, &out)
	require.NoError(t, err)

	assert.Empty(t, bodyBytes)
}

func TestRequest_ErrorStatus(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"not found"}`)
	}))

	var out Project
	err := client.Request(context.Background(), http.MethodGet, "/projects/9.json", nil, &out)
	require.Error(t, err)

	var httpErr *bcerrors.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.Contains(t, httpErr.URL, srv.URL)
	assert.Contains(t, httpErr.Body, "not found")
}

func TestRequest_NonJSONResponseIntoString(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "plain text body")
	}))

	var out string
	require.NoError(t, client.Request(context.Background(), http.MethodGet, "/thing", nil, &out))
	assert.Equal(t, "plain text body", out)
}

func TestRequest_NonJSONResponseIntoStruct(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html></html>")
	}))

	var out Project
	err := client.Request(context.Background(), http.MethodGet, "/thing", nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected content type")
}

func TestRaw_JSONPassesThrough(t *testing.T) {
	client, _ := newTestClient(t, jsonHandler(t, nil, `{"a": [1, 2]}`))

	raw, err := client.Raw(context.Background(), http.MethodGet, "/thing.json", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":[1,2]}`, string(raw))
}

func TestRaw_TextQuotedAsJSONString(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "hello")
	}))

	raw, err := client.Raw(context.Background(), http.MethodGet, "/thing", nil)
	require.NoError(t, err)
	assert.Equal(t, `"hello"`, string(raw))
}

func TestSanitizeResponseBody(t *testing.T) {
	assert.Equal(t, "ok\nline", sanitizeResponseBody([]byte("ok\nline")))
	assert.Equal(t, "a?b", sanitizeResponseBody([]byte{'a', 0x01, 'b'}))
	assert.Equal(t, "x?y", sanitizeResponseBody([]byte{'x', 0xff, 'y'}))

	long := make([]byte, 1024)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, sanitizeResponseBody(long), 512)
}
