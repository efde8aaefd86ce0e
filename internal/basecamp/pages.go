package basecamp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// GetAllPages fetches every page of a JSON-array endpoint by following the
// Link response header's rel="next" URL (RFC 5988), returning the elements
// of all pages flattened in page order. The walk is strictly sequential:
// each page's Link header is read before the next fetch begins. The token
// is resolved once and reused for every page.
func (c *Client) GetAllPages(ctx context.Context, path string, opts *RequestOptions) ([]json.RawMessage, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	token, accountID, err := c.authenticate(ctx, opts.OpenBrowser)
	if err != nil {
		return nil, err
	}

	next, err := c.buildURL(path, opts.Query, opts.Absolute, accountID)
	if err != nil {
		return nil, err
	}

	var all []json.RawMessage

	for next != "" {
		resp, err := c.sendURL(ctx, http.MethodGet, next, nil, opts.Headers, token.AccessToken)
		if err != nil {
			return nil, err
		}

		var page []json.RawMessage
		if err := json.Unmarshal(resp.body, &page); err != nil {
			return nil, fmt.Errorf("decoding page from %s: %w", resp.url, err)
		}

		all = append(all, page...)
		next = parseNextLink(resp.header.Get("Link"))
	}

	return all, nil
}

// AllPages is the typed variant of Client.GetAllPages.
func AllPages[T any](ctx context.Context, c *Client, path string, opts *RequestOptions) ([]T, error) {
	raw, err := c.GetAllPages(ctx, path, opts)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(raw))

	for i, item := range raw {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, fmt.Errorf("decoding item %d: %w", i, err)
		}

		out = append(out, v)
	}

	return out, nil
}

// parseNextLink extracts the rel="next" target from an RFC 5988 Link
// header, e.g. `<https://host/page2.json>; rel="next"`. Returns "" when no
// next link is present.
func parseNextLink(header string) string {
	if header == "" {
		return ""
	}

	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)

		start := strings.IndexByte(part, '<')
		end := strings.IndexByte(part, '>')
		if start < 0 || end < start {
			continue
		}

		if strings.Contains(part[end:], `rel="next"`) {
			return part[start+1 : end]
		}
	}

	return ""
}
