package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	bcerrors "github.com/alexjbarnes/basecamp-mcp/internal/errors"
)

// authorizationJSON is the provider's token-introspection payload listing
// the accounts the token can act on.
type authorizationJSON struct {
	Accounts []struct {
		ID      int64  `json:"id"`
		Product string `json:"product"`
	} `json:"accounts"`
}

// ResolveAccountID returns the numeric account id that scopes all API
// calls. An explicit override short-circuits without a network call, which
// is how multi-account ambiguity is pinned. Otherwise the provider's
// authorization endpoint is consulted: the first account whose product tag
// contains "bc" (Basecamp) wins, falling back to the first listed account.
func (f *Flow) ResolveAccountID(ctx context.Context, accessToken string) (string, error) {
	if f.cfg.AccountID != "" {
		return f.cfg.AccountID, nil
	}

	endpoint := f.authBase + "/authorization.json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating authorization request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching authorization: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("reading authorization response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &bcerrors.HTTPError{Status: resp.StatusCode, URL: endpoint, Body: string(body)}
	}

	var data authorizationJSON
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("decoding authorization response: %w", err)
	}

	if len(data.Accounts) == 0 {
		return "", bcerrors.ErrNoAccount
	}

	for _, acct := range data.Accounts {
		if strings.Contains(strings.ToLower(acct.Product), "bc") {
			return strconv.FormatInt(acct.ID, 10), nil
		}
	}

	return strconv.FormatInt(data.Accounts[0].ID, 10), nil
}
