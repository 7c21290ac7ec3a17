package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hooterhq/hooter-backend/pkg/config"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := New(config.VaultConfig{SecretKey: "unit-test-secret"})
	require.NoError(t, err)
	return v
}

func TestSealOpenRoundTrip(t *testing.T) {
	v := newTestVault(t)

	sealed, err := v.Seal("shpat_0123456789abcdef")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "shpat_")

	opened, err := v.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "shpat_0123456789abcdef", opened)
}

func TestSealProducesUniqueCiphertexts(t *testing.T) {
	v := newTestVault(t)

	first, err := v.Seal("token")
	require.NoError(t, err)
	second, err := v.Seal("token")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestOpenRejectsTamperedInput(t *testing.T) {
	v := newTestVault(t)

	sealed, err := v.Seal("token")
	require.NoError(t, err)

	tampered := "A" + sealed[1:]
	if tampered == sealed {
		tampered = "B" + sealed[1:]
	}
	_, err = v.Open(tampered)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = v.Open("not-base64!!!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = v.Open("")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestOpenRequiresMatchingSecret(t *testing.T) {
	v := newTestVault(t)
	sealed, err := v.Seal("token")
	require.NoError(t, err)

	other, err := New(config.VaultConfig{SecretKey: "different-secret"})
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New(config.VaultConfig{})
	assert.Error(t, err)
}

func TestSealRejectsEmptyPlaintext(t *testing.T) {
	v := newTestVault(t)
	_, err := v.Seal("")
	assert.Error(t, err)
}
