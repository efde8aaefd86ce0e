package auth

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	store := NewTokenStore(path)

	tok := &Token{
		AccessToken:  "at-1",
		TokenType:    "Bearer",
		ExpiresIn:    7200,
		RefreshToken: "rt-1",
		ExpiresAt:    1_700_000_000_000,
		AccountID:    "999",
	}

	require.NoError(t, store.Write(tok))

	got := store.Read()
	require.NotNil(t, got)
	assert.Equal(t, tok, got)
}

func TestTokenStore_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not meaningful on windows")
	}

	path := filepath.Join(t.TempDir(), "token.json")
	store := NewTokenStore(path)
	require.NoError(t, store.Write(&Token{AccessToken: "a"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestTokenStore_MissingFile(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "absent.json"))
	assert.Nil(t, store.Read())
}

func TestTokenStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := NewTokenStore(path)
	assert.Nil(t, store.Read())
}
