package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tidwall/gjson"

	"github.com/alexjbarnes/basecamp-mcp/internal/basecamp"
)

// AuthenticateInput holds parameters for the authenticate tool.
type AuthenticateInput struct {
	OpenBrowser *bool `json:"openBrowser,omitempty" jsonschema:"whether to open browser for OAuth, defaults to true"`
}

// APIRequestInput holds parameters for the api_request tool.
type APIRequestInput struct {
	Method   string         `json:"method" jsonschema:"required,HTTP method: GET, POST, PUT, PATCH, DELETE, HEAD"`
	Path     string         `json:"path" jsonschema:"required,API path like /projects.json or absolute URL"`
	Query    map[string]any `json:"query,omitempty" jsonschema:"optional query parameters as key/value map"`
	Body     any            `json:"body,omitempty" jsonschema:"optional JSON body for write methods"`
	Absolute bool           `json:"absolute,omitempty" jsonschema:"treat path as absolute URL, defaults to false"`
}

// DownloadInput holds parameters for the sdk_attachments_download tool.
type DownloadInput struct {
	URL      string `json:"url" jsonschema:"required,download URL from image.downloadUrl"`
	Filename string `json:"filename,omitempty" jsonschema:"filename to save as"`
	MimeType string `json:"mimeType,omitempty" jsonschema:"MIME type, e.g. image/png"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "authenticate",
		Description: "Authenticate with Basecamp (opens browser for OAuth)",
	}, s.authenticateHandler())

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "api_request",
		Description: "Generic Basecamp API request (exposes full API surface). Path is relative to account unless absolute=true.",
	}, s.apiRequestHandler())

	originalToSafe := make(map[string]string, len(s.safeToOriginal))
	for safe, original := range s.safeToOriginal {
		originalToSafe[original] = safe
	}

	for _, action := range s.reg.Actions() {
		s.mcp.AddTool(&mcp.Tool{
			Name:        originalToSafe[action.Name],
			Description: action.Description,
			InputSchema: action.InputSchema,
		}, s.actionHandler(action.Name))
	}

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "sdk_attachments_download",
		Description: "Download an attachment/image from Basecamp. Returns base64 data and saves to .basecamp/images/. Use downloadUrl from enriched card images.",
	}, s.downloadHandler())
}

func (s *Server) authenticateHandler() mcp.ToolHandlerFor[AuthenticateInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AuthenticateInput) (*mcp.CallToolResult, any, error) {
		openBrowser := true
		if input.OpenBrowser != nil {
			openBrowser = *input.OpenBrowser
		}

		if _, err := s.client.Flow().Authenticate(ctx, openBrowser); err != nil {
			return errorResult(err), nil, nil
		}

		return textResult("Successfully authenticated with Basecamp!\n\nYou can now use other Basecamp tools."), nil, nil
	}
}

func (s *Server) apiRequestHandler() mcp.ToolHandlerFor[APIRequestInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input APIRequestInput) (*mcp.CallToolResult, any, error) {
		raw, err := s.client.Raw(ctx, strings.ToUpper(input.Method), input.Path, &basecamp.RequestOptions{
			Query:    input.Query,
			Body:     input.Body,
			Absolute: input.Absolute,
		})
		if err != nil {
			return errorResult(err), nil, nil
		}

		return textResult(rawToText(raw)), nil, nil
	}
}

// actionHandler dispatches one registry action. Results carrying inline
// image data come back as an image content block so the model can see
// them; everything else is JSON text.
func (s *Server) actionHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := s.reg.Invoke(ctx, s.client, name, req.Params.Arguments)
		if err != nil {
			s.logger.Warn("action failed",
				slog.String("action", name),
				slog.Any("error", err))
			return errorResult(err), nil
		}

		if text, ok := result.(string); ok {
			return textResult(text), nil
		}

		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return errorResult(err), nil
		}

		if img := imageResult(data); img != nil {
			return img, nil
		}

		return textResult(string(data)), nil
	}
}

func (s *Server) downloadHandler() mcp.ToolHandlerFor[DownloadInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DownloadInput) (*mcp.CallToolResult, any, error) {
		result, err := s.client.DownloadAttachment(ctx, input.URL, input.Filename, input.MimeType)
		if err != nil {
			return errorResult(err), nil, nil
		}

		if result.Base64 != "" && strings.HasPrefix(result.MimeType, "image/") {
			decoded, err := base64.StdEncoding.DecodeString(result.Base64)
			if err == nil {
				return &mcp.CallToolResult{
					Content: []mcp.Content{&mcp.ImageContent{Data: decoded, MIMEType: result.MimeType}},
				}, nil, nil
			}
		}

		meta, err := json.MarshalIndent(map[string]string{
			"filename":  result.Filename,
			"mimeType":  result.MimeType,
			"savedPath": result.SavedPath,
		}, "", "  ")
		if err != nil {
			return errorResult(err), nil, nil
		}

		return textResult(string(meta)), nil, nil
	}
}

// imageResult returns an image content block when the serialized result
// carries base64 data with an image MIME type, nil otherwise.
func imageResult(data []byte) *mcp.CallToolResult {
	b64 := gjson.GetBytes(data, "base64")
	mime := gjson.GetBytes(data, "mimeType")
	if !b64.Exists() || !strings.HasPrefix(mime.String(), "image/") {
		return nil
	}

	decoded, err := base64.StdEncoding.DecodeString(b64.String())
	if err != nil {
		return nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.ImageContent{Data: decoded, MIMEType: mime.String()}},
	}
}

// rawToText renders a Raw result for display: JSON string values unwrap to
// their text, everything else is pretty-printed.
func rawToText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}

	return buf.String()
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Error: %v", err)}},
		IsError: true,
	}
}
