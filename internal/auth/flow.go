package auth

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alexjbarnes/basecamp-mcp/internal/config"
	bcerrors "github.com/alexjbarnes/basecamp-mcp/internal/errors"
)

const (
	// defaultAuthBase is the 37signals launchpad, which hosts both the
	// authorization pages and the token endpoint.
	defaultAuthBase = "https://launchpad.37signals.com"

	// httpTimeout bounds token exchange and introspection calls.
	httpTimeout = 30 * time.Second

	// maxResponseBytes caps provider response reads.
	maxResponseBytes = 1024 * 1024
)

// tokenResponse is the provider's token endpoint payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Flow orchestrates token acquisition. Priority order, short-circuiting:
// cached token, refresh exchange, full browser OAuth with loopback capture.
// At most one of {refresh, full authorize} happens per call.
type Flow struct {
	cfg      *config.Config
	store    *TokenStore
	opener   BrowserOpener
	client   *http.Client
	logger   *slog.Logger
	authBase string

	// interactive permits a manual code paste from stdin when the
	// loopback listener cannot start. Must stay false when the process
	// serves MCP over stdio, where reading stdin would corrupt the
	// protocol stream.
	interactive bool
	stdin       io.Reader

	now func() time.Time
}

// Options configures optional Flow collaborators. The zero value gives
// production defaults.
type Options struct {
	Opener      BrowserOpener
	HTTPClient  *http.Client
	Interactive bool
	Stdin       io.Reader
	AuthBase    string
	Now         func() time.Time
}

// NewFlow creates an OAuth flow bound to the given config and token store
// location.
func NewFlow(cfg *config.Config, logger *slog.Logger, opts Options) *Flow {
	f := &Flow{
		cfg:         cfg,
		store:       NewTokenStore(cfg.TokenPath),
		opener:      opts.Opener,
		client:      opts.HTTPClient,
		logger:      logger,
		authBase:    opts.AuthBase,
		interactive: opts.Interactive,
		stdin:       opts.Stdin,
		now:         opts.Now,
	}

	if f.opener == nil {
		f.opener = ExecOpener{}
	}

	if f.client == nil {
		f.client = &http.Client{Timeout: httpTimeout}
	}

	if f.authBase == "" {
		f.authBase = defaultAuthBase
	}

	if f.stdin == nil {
		f.stdin = os.Stdin
	}

	if f.now == nil {
		f.now = time.Now
	}

	return f
}

// Store exposes the underlying token store.
func (f *Flow) Store() *TokenStore { return f.store }

// GetAccessToken returns a usable token, refreshing or re-authorizing as
// needed. When openBrowser is true and full authorization is reached, the
// default browser is launched best-effort.
func (f *Flow) GetAccessToken(ctx context.Context, openBrowser bool) (*Token, error) {
	cached := f.store.Read()
	if cached != nil && cached.Usable(f.now()) {
		return cached, nil
	}

	if cached != nil && cached.RefreshToken != "" {
		t, err := f.refresh(ctx, cached.RefreshToken)
		if err != nil {
			return nil, err
		}

		// The new token inherits the account binding so the account
		// does not need re-resolution after every refresh.
		t.AccountID = cached.AccountID

		if err := f.store.Write(t); err != nil {
			return nil, err
		}

		return t, nil
	}

	code, err := f.authorize(ctx, openBrowser)
	if err != nil {
		return nil, err
	}

	t, err := f.exchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := f.store.Write(t); err != nil {
		return nil, err
	}

	return t, nil
}

// TryAutoAuth attempts cache-or-refresh only. It never opens a browser or
// prompts, and swallows refresh failures so the caller can decide whether
// to escalate to interactive auth. Returns nil when no token is available.
func (f *Flow) TryAutoAuth(ctx context.Context) *Token {
	cached := f.store.Read()
	if cached == nil {
		return nil
	}

	if cached.Usable(f.now()) {
		return cached
	}

	if cached.RefreshToken == "" {
		return nil
	}

	t, err := f.refresh(ctx, cached.RefreshToken)
	if err != nil {
		f.logger.Debug("silent token refresh failed", slog.Any("error", err))
		return nil
	}

	t.AccountID = cached.AccountID

	if err := f.store.Write(t); err != nil {
		f.logger.Debug("persisting refreshed token failed", slog.Any("error", err))
		return nil
	}

	return t
}

// HasValidToken reports whether a usable token is cached. Pure cache
// check, no network.
func (f *Flow) HasValidToken() bool {
	cached := f.store.Read()
	return cached != nil && cached.Usable(f.now())
}

// Authenticate runs the full flow, returning the resulting token.
// Convenience wrapper for the CLI auth command and the MCP authenticate
// tool.
func (f *Flow) Authenticate(ctx context.Context, openBrowser bool) (*Token, error) {
	return f.GetAccessToken(ctx, openBrowser)
}

// requireOAuth validates the OAuth triad, which is only needed once a
// network step with the identity provider is reached.
func (f *Flow) requireOAuth() error {
	if !f.cfg.HasOAuthCredentials() {
		return &bcerrors.ConfigError{Missing: "BASECAMP_CLIENT_ID/SECRET/REDIRECT_URI"}
	}

	return nil
}

// authorizeURL builds the provider's browser-visited authorization URL.
func (f *Flow) authorizeURL() string {
	return fmt.Sprintf("%s/authorization/new?type=web_server&client_id=%s&redirect_uri=%s",
		f.authBase, url.QueryEscape(f.cfg.ClientID), url.QueryEscape(f.cfg.RedirectURI))
}

// authorize obtains an authorization code: browser launch (best effort),
// loopback capture, and on listener failure either a manual stdin paste
// (interactive mode) or an error embedding the authorization URL.
func (f *Flow) authorize(ctx context.Context, openBrowser bool) (string, error) {
	if err := f.requireOAuth(); err != nil {
		return "", err
	}

	authURL := f.authorizeURL()
	f.logger.Info("authorize this app by visiting", slog.String("url", authURL))

	if openBrowser {
		if err := f.opener.Open(authURL); err != nil {
			// Headless environments are expected; the URL above is
			// enough to proceed manually.
			f.logger.Debug("browser launch failed", slog.Any("error", err))
		}
	}

	code, err := f.waitForCallback(ctx)
	if err == nil {
		return code, nil
	}

	// Provider-signalled denials and cancellation are final.
	var oauthErr *bcerrors.OAuthError
	if errors.As(err, &oauthErr) || ctx.Err() != nil {
		return "", err
	}

	if !f.interactive {
		return "", fmt.Errorf("local callback failed; authorize manually at %s: %w", authURL, err)
	}

	f.logger.Info("local callback failed, falling back to manual code entry", slog.Any("error", err))

	return f.promptForCode()
}

// waitForCallback runs a one-shot loopback HTTP listener on the redirect
// URI's port and waits for the provider redirect carrying the code.
func (f *Flow) waitForCallback(ctx context.Context) (string, error) {
	redirect, err := url.Parse(f.cfg.RedirectURI)
	if err != nil {
		return "", fmt.Errorf("parsing redirect URI: %w", err)
	}

	port := redirect.Port()
	if port == "" {
		port = "80"
	}

	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		portNum, _ := strconv.Atoi(port)
		return "", &bcerrors.ListenerPortError{Port: portNum, Err: err}
	}

	type callback struct {
		code string
		err  error
	}

	done := make(chan callback, 1)

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != redirect.Path {
			http.NotFound(w, r)
			return
		}

		query := r.URL.Query()

		if errParam := query.Get("error"); errParam != "" {
			http.Error(w, "Authorization failed", http.StatusBadRequest)
			done <- callback{err: &bcerrors.OAuthError{Op: "authorize", Body: errParam}}

			return
		}

		code := query.Get("code")
		if code == "" {
			// Keep listening; this was not the provider redirect.
			http.Error(w, "Missing code", http.StatusBadRequest)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "You can close this window and return to the CLI.")
		done <- callback{code: code}
	})}

	go func() { _ = srv.Serve(ln) }()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case cb := <-done:
		return cb.code, cb.err
	}
}

// promptForCode reads a manually pasted authorization code. CLI mode only.
func (f *Flow) promptForCode() (string, error) {
	fmt.Fprint(os.Stderr, "Code: ")

	scanner := bufio.NewScanner(f.stdin)
	if !scanner.Scan() {
		return "", fmt.Errorf("reading authorization code: %w", scanner.Err())
	}

	code := strings.TrimSpace(scanner.Text())
	if code == "" {
		return "", fmt.Errorf("empty authorization code")
	}

	return code, nil
}

// exchangeCode trades an authorization code for a token (web_server grant).
func (f *Flow) exchangeCode(ctx context.Context, code string) (*Token, error) {
	form := url.Values{
		"type":          {"web_server"},
		"client_id":     {f.cfg.ClientID},
		"redirect_uri":  {f.cfg.RedirectURI},
		"client_secret": {f.cfg.ClientSecret},
		"code":          {code},
	}

	return f.exchange(ctx, "exchange", form)
}

// refresh trades a refresh token for a new token (refresh grant).
func (f *Flow) refresh(ctx context.Context, refreshToken string) (*Token, error) {
	if err := f.requireOAuth(); err != nil {
		return nil, err
	}

	form := url.Values{
		"type":          {"refresh"},
		"client_id":     {f.cfg.ClientID},
		"redirect_uri":  {f.cfg.RedirectURI},
		"client_secret": {f.cfg.ClientSecret},
		"refresh_token": {refreshToken},
	}

	return f.exchange(ctx, "refresh", form)
}

// exchange posts a form-encoded grant to the token endpoint and derives the
// absolute expiry from the issue timestamp.
func (f *Flow) exchange(ctx context.Context, op string, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		f.authBase+"/authorization/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	issuedAt := f.now()

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token %s request: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &bcerrors.OAuthError{Op: op, Status: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}

	return &Token{
		AccessToken:  tr.AccessToken,
		TokenType:    tr.TokenType,
		ExpiresIn:    tr.ExpiresIn,
		RefreshToken: tr.RefreshToken,
		Scope:        tr.Scope,
		ExpiresAt:    issuedAt.UnixMilli() + tr.ExpiresIn*1000,
	}, nil
}
