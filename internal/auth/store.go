package auth

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	// tokenDirPerm is the permission mode for the token cache directory.
	tokenDirPerm = fs.FileMode(0o700)

	// tokenFilePerm keeps the cached credentials readable by the owner only.
	tokenFilePerm = fs.FileMode(0o600)
)

// TokenStore persists a single Token record as a JSON file. There is no
// schema versioning: a missing, unreadable, or corrupt file is treated
// identically to "no cached token", because the refresh-or-reauthorize
// decision downstream only needs that one distinction.
type TokenStore struct {
	path string
}

// NewTokenStore creates a store writing to the given file path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the cache file location.
func (s *TokenStore) Path() string { return s.path }

// Read loads the cached token. A nil result means no usable cache entry;
// read and parse failures are deliberately swallowed.
func (s *TokenStore) Read() *Token {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil
	}

	return &t
}

// Write persists the token, creating parent directories on demand. Every
// code path that obtains a new or refreshed token writes it here before
// returning to the caller.
func (s *TokenStore) Write(t *Token) error {
	if err := os.MkdirAll(filepath.Dir(s.path), tokenDirPerm); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	if err := os.WriteFile(s.path, data, tokenFilePerm); err != nil {
		return fmt.Errorf("writing token cache: %w", err)
	}

	return nil
}
