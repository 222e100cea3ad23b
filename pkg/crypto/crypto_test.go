package crypto

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestCrypter(t *testing.T) *Crypter {
	t.Helper()
	key, err := LoadOrGenerateKey(filepath.Join(t.TempDir(), "ckit", "key"))
	require.NoError(t, err)
	c, err := NewCrypter(key)
	require.NoError(t, err)
	return c
}

func TestSealOpen(t *testing.T) {
	c := newTestCrypter(t)

	sealed, err := c.Seal("auth-token-123")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(sealed, Prefix))
	require.NotContains(t, sealed, "auth-token-123")

	plain, err := c.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "auth-token-123", plain)

	again, err := c.Seal("auth-token-123")
	require.NoError(t, err)
	require.NotEqual(t, sealed, again, "nonce must differ per seal")
}

func TestOpenRejectsTamperedAndPlain(t *testing.T) {
	c := newTestCrypter(t)

	_, err := c.Open("plain")
	require.ErrorIs(t, err, ErrNotSealed)

	_, err = c.Open(Prefix + "!!!")
	require.Error(t, err)

	other := newTestCrypter(t)
	sealed, err := other.Seal("x")
	require.NoError(t, err)
	_, err = c.Open(sealed)
	require.Error(t, err)
}

func TestReveal(t *testing.T) {
	c := newTestCrypter(t)
	v, err := c.Reveal("not-secret")
	require.NoError(t, err)
	require.Equal(t, "not-secret", v)

	sealed, err := c.Seal("secret")
	require.NoError(t, err)
	v, err = c.Reveal(sealed)
	require.NoError(t, err)
	require.Equal(t, "secret", v)
}

func TestLoadOrGenerateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	first, err := LoadOrGenerateKey(path)
	require.NoError(t, err)
	require.Len(t, first, KeySize)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := LoadOrGenerateKey(path)
	require.NoError(t, err)
	require.Equal(t, first, second)

	require.NoError(t, os.WriteFile(path, []byte("short"), 0o600))
	_, err = LoadOrGenerateKey(path)
	require.Error(t, err)

	_, err = NewCrypter([]byte("short"))
	require.Error(t, err)
}
