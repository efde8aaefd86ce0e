package basecamp

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"

	bcerrors "github.com/alexjbarnes/basecamp-mcp/internal/errors"
)

// Content-hosting hostnames embedded in attachment markup. Hitting them
// directly with an OAuth bearer token returns unauthorized or not-found;
// the same path resolves correctly under the API hostname.
const (
	storageHost = "storage.3.basecamp.com"
	previewHost = "preview.3.basecamp.com"
	apiHost     = "3.basecampapi.com"
)

// maxDownloadBytes caps binary downloads.
const maxDownloadBytes = 64 * 1024 * 1024

// RewriteContentHost maps the storage and preview content hostnames to the
// authenticated API hostname, leaving every other URL untouched.
func RewriteContentHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	if u.Host == storageHost || u.Host == previewHost {
		u.Host = apiHost
		return u.String()
	}

	return rawURL
}

// DownloadBinary fetches a binary resource with bearer authentication and
// returns it base64-encoded. Content-host URLs are rewritten to the API
// hostname first. Never triggers interactive auth.
func (c *Client) DownloadBinary(ctx context.Context, rawURL string) (string, error) {
	token, err := c.flow.GetAccessToken(ctx, false)
	if err != nil {
		return "", err
	}

	target := RewriteContentHost(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("creating download request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &bcerrors.DownloadError{URL: target, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return "", fmt.Errorf("reading download from %s: %w", target, err)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}
