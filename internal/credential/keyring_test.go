package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVault() *Vault {
	return NewVault(keyring.NewArrayKeyring(nil))
}

func TestVaultRoundTrip(t *testing.T) {
	v := newTestVault()

	require.NoError(t, v.Set(KeyAPIKey, "anon-key"))
	got, err := v.Get(KeyAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "anon-key", got)

	require.NoError(t, v.Delete(KeyAPIKey))
	require.NoError(t, v.Delete(KeyAPIKey))

	_, err = v.Get(KeyAPIKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVaultBackend(t *testing.T) {
	v := newTestVault()

	_, _, err := v.Backend()
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, v.Set(KeyAPIKey, "anon-key"))
	apiKey, token, err := v.Backend()
	require.NoError(t, err)
	assert.Equal(t, "anon-key", apiKey)
	assert.Empty(t, token)

	require.NoError(t, v.Set(KeyAccessToken, "jwt"))
	_, token, err = v.Backend()
	require.NoError(t, err)
	assert.Equal(t, "jwt", token)
}
