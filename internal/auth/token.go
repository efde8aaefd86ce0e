// Package auth implements the Basecamp OAuth 2.0 token lifecycle: cached
// token reuse, refresh-token rotation, and the full web-server grant with a
// local loopback listener capturing the authorization code.
package auth

import "time"

// freshnessMargin is subtracted from a token's expiry when deciding
// usability, so a token is never presented within 60 seconds of expiring.
const freshnessMargin = 60 * time.Second

// Token is the cached OAuth token record. Field names match the provider's
// token response plus two derived fields, so the cache file round-trips the
// provider payload unchanged.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`

	// ExpiresAt is the absolute expiry in Unix milliseconds, derived at
	// issue time as issued_at + expires_in*1000.
	ExpiresAt int64 `json:"expires_at"`

	// AccountID is the resolved account binding, carried across
	// refreshes so re-resolution is not needed.
	AccountID string `json:"account_id,omitempty"`
}

// Usable reports whether the token can be presented at time now, applying
// the 60-second freshness margin.
func (t *Token) Usable(now time.Time) bool {
	return t.ExpiresAt-freshnessMargin.Milliseconds() > now.UnixMilli()
}
