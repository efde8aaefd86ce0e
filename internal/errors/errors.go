// Package errors defines the error taxonomy shared by the auth layer, the
// HTTP client, and the action registry. Callers match with errors.Is/As.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNoAccount means the identity provider returned an empty account
	// list for the presented token.
	ErrNoAccount = errors.New("no Basecamp account found for this token")

	// ErrNoToken is returned by silent auth paths when no usable cached
	// token exists and no refresh was possible.
	ErrNoToken = errors.New("no valid token available")
)

// ConfigError reports a required configuration value missing at the point
// it is needed.
type ConfigError struct {
	Missing string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required config: %s", e.Missing)
}

// OAuthError reports a failed authorization or token exchange with the
// identity provider. Status is zero when the provider signalled the error
// via the redirect's error query parameter.
type OAuthError struct {
	Op     string // "authorize", "exchange", "refresh"
	Status int
	Body   string
}

func (e *OAuthError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("oauth %s failed: %s", e.Op, e.Body)
	}

	return fmt.Sprintf("oauth %s failed: %d %s", e.Op, e.Status, e.Body)
}

// HTTPError reports a non-2xx response from the Basecamp API. Body carries
// the response text so the caller can diagnose without re-requesting.
type HTTPError struct {
	Status int
	URL    string
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s: %s", e.Status, e.URL, e.Body)
}

// DownloadError reports a failed binary download. During card enrichment it
// degrades to image-metadata-without-payload rather than failing the whole
// aggregation.
type DownloadError struct {
	URL    string
	Status int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed with status %d for %s", e.Status, e.URL)
}

// UnknownActionError reports a registry lookup miss.
type UnknownActionError struct {
	Name string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action: %s", e.Name)
}

// ListenerPortError reports that the OAuth loopback port is already bound.
type ListenerPortError struct {
	Port int
	Err  error
}

func (e *ListenerPortError) Error() string {
	return fmt.Sprintf("port %d is busy; close other instances or change the redirect URI: %v", e.Port, e.Err)
}

func (e *ListenerPortError) Unwrap() error { return e.Err }

// ValidationError reports action arguments that failed schema validation.
type ValidationError struct {
	Action string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s %s", e.Action, e.Field, e.Reason)
}
