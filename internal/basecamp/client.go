package basecamp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alexjbarnes/basecamp-mcp/internal/auth"
	"github.com/alexjbarnes/basecamp-mcp/internal/config"
	bcerrors "github.com/alexjbarnes/basecamp-mcp/internal/errors"
)

const defaultAPIBase = "https://3.basecampapi.com"

const (
	// httpClientTimeout is the timeout for the default HTTP client used
	// when no custom client is provided.
	httpClientTimeout = 30 * time.Second

	// maxAPIResponseBytes caps JSON response reads. Card tables with
	// every column inlined are the largest payloads seen in practice.
	maxAPIResponseBytes = 8 * 1024 * 1024
)

// Client is the authenticated Basecamp API client. Every request is
// independently authenticated: the token and account id are obtained per
// call, so no session state is threaded between calls.
type Client struct {
	cfg     *config.Config
	flow    *auth.Flow
	http    *http.Client
	logger  *slog.Logger
	apiBase string
}

// ClientOptions configures optional Client collaborators. The zero value
// gives production defaults.
type ClientOptions struct {
	HTTPClient *http.Client
	APIBase    string
}

// NewClient creates a client backed by the given OAuth flow.
func NewClient(cfg *config.Config, flow *auth.Flow, logger *slog.Logger, opts ClientOptions) *Client {
	c := &Client{
		cfg:     cfg,
		flow:    flow,
		http:    opts.HTTPClient,
		logger:  logger,
		apiBase: opts.APIBase,
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: httpClientTimeout}
	}

	if c.apiBase == "" {
		c.apiBase = defaultAPIBase
	}

	return c
}

// Flow exposes the underlying OAuth flow for callers that need auth
// operations directly (the CLI auth command, the MCP authenticate tool).
func (c *Client) Flow() *auth.Flow { return c.flow }

// RequestOptions modify a single request.
type RequestOptions struct {
	// Query parameters. Nil values are omitted, everything else is
	// stringified.
	Query map[string]any

	// Headers are merged over the defaults.
	Headers map[string]string

	// Body is omitted for GET/HEAD. A string passes through unchanged,
	// anything else is JSON-serialized with Content-Type set to
	// application/json unless already provided.
	Body any

	// Absolute treats path as a full URL instead of an account-relative
	// API path.
	Absolute bool

	// OpenBrowser permits interactive OAuth if no cached or refreshable
	// token exists.
	OpenBrowser bool
}

// response is a fully-read successful (2xx) API response.
type response struct {
	status int
	header http.Header
	body   []byte
	url    string
}

func (r *response) isJSON() bool {
	return strings.Contains(r.header.Get("Content-Type"), "application/json")
}

// Request performs an authenticated API call and decodes the response into
// out. A JSON response is unmarshalled; any other content type requires out
// to be a *string (or nil). HEAD responses carry no body.
func (c *Client) Request(ctx context.Context, method, path string, opts *RequestOptions, out any) error {
	resp, err := c.send(ctx, method, path, opts)
	if err != nil {
		return err
	}

	if method == http.MethodHead || out == nil {
		return nil
	}

	if resp.isJSON() {
		if len(resp.body) == 0 {
			return nil
		}

		if err := json.Unmarshal(resp.body, out); err != nil {
			return fmt.Errorf("decoding response from %s: %w", resp.url, err)
		}

		return nil
	}

	if s, ok := out.(*string); ok {
		*s = string(resp.body)
		return nil
	}

	return fmt.Errorf("unexpected content type %q from %s", resp.header.Get("Content-Type"), resp.url)
}

// Raw performs an authenticated request and returns the response as JSON.
// Non-JSON responses come back as a JSON string value. The generic
// api_request tool uses this to expose the full API surface without
// committing to a shape.
func (c *Client) Raw(ctx context.Context, method, path string, opts *RequestOptions) (json.RawMessage, error) {
	resp, err := c.send(ctx, method, path, opts)
	if err != nil {
		return nil, err
	}

	if method == http.MethodHead || len(resp.body) == 0 {
		return nil, nil
	}

	if resp.isJSON() {
		return json.RawMessage(resp.body), nil
	}

	quoted, err := json.Marshal(string(resp.body))
	if err != nil {
		return nil, fmt.Errorf("encoding text response: %w", err)
	}

	return quoted, nil
}

// send authenticates, builds the URL, and performs one request.
func (c *Client) send(ctx context.Context, method, path string, opts *RequestOptions) (*response, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	token, accountID, err := c.authenticate(ctx, opts.OpenBrowser)
	if err != nil {
		return nil, err
	}

	fullURL, err := c.buildURL(path, opts.Query, opts.Absolute, accountID)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(method, opts.Body)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(opts.Headers)+1)
	if contentType != "" {
		headers["Content-Type"] = contentType
	}

	for k, v := range opts.Headers {
		headers[k] = v
	}

	return c.sendURL(ctx, method, fullURL, body, headers, token.AccessToken)
}

// sendURL performs one request against a fully-built URL with an
// already-resolved token. Pagination walks call this directly so the token
// is fetched once and reused for every page.
func (c *Client) sendURL(ctx context.Context, method, fullURL string, body io.Reader, headers map[string]string, accessToken string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	c.setAuthHeaders(req, accessToken)

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending %s %s: %w", method, fullURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", fullURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &bcerrors.HTTPError{Status: resp.StatusCode, URL: fullURL, Body: sanitizeResponseBody(respBody)}
	}

	return &response{
		status: resp.StatusCode,
		header: resp.Header,
		body:   respBody,
		url:    fullURL,
	}, nil
}

// authenticate resolves the token and account id for one call.
func (c *Client) authenticate(ctx context.Context, openBrowser bool) (*auth.Token, string, error) {
	token, err := c.flow.GetAccessToken(ctx, openBrowser)
	if err != nil {
		return nil, "", err
	}

	accountID, err := c.flow.ResolveAccountID(ctx, token.AccessToken)
	if err != nil {
		return nil, "", err
	}

	return token, accountID, nil
}

// setAuthHeaders attaches the bearer token, user agent, and JSON accept
// header required on every API call.
func (c *Client) setAuthHeaders(req *http.Request, accessToken string) {
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
}

// buildURL joins an account-relative path onto the API base, or validates
// an absolute URL, then applies query parameters.
func (c *Client) buildURL(path string, query map[string]any, absolute bool, accountID string) (string, error) {
	base := strings.TrimSpace(path)
	if !absolute {
		base = fmt.Sprintf("%s/%s/%s", c.apiBase, accountID, strings.TrimPrefix(base, "/"))
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing URL %q: %w", base, err)
	}

	if len(query) > 0 {
		values := u.Query()

		for k, v := range query {
			if v == nil {
				continue
			}

			values.Set(k, fmt.Sprintf("%v", v))
		}

		u.RawQuery = values.Encode()
	}

	return u.String(), nil
}

// encodeBody prepares the request body. GET/HEAD never carry one.
func encodeBody(method string, body any) (io.Reader, string, error) {
	if body == nil || method == http.MethodGet || method == http.MethodHead {
		return nil, "", nil
	}

	if s, ok := body.(string); ok {
		return strings.NewReader(s), "", nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("encoding request body: %w", err)
	}

	return bytes.NewReader(data), "application/json", nil
}

// sanitizeResponseBody truncates and sanitizes a response body for
// inclusion in error messages. Limits to 512 bytes and replaces
// non-printable characters to prevent log injection.
func sanitizeResponseBody(body []byte) string {
	const maxLen = 512
	if len(body) > maxLen {
		body = body[:maxLen]
	}

	var clean []byte

	for len(body) > 0 {
		r, size := utf8.DecodeRune(body)
		if r == utf8.RuneError && size <= 1 {
			clean = append(clean, '?')
			body = body[1:]

			continue
		}

		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			clean = append(clean, '?')
		} else {
			clean = append(clean, body[:size]...)
		}

		body = body[size:]
	}

	return string(clean)
}
