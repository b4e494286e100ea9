package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer("test-secret")
	require.NoError(t, err)

	blob, err := s.Seal([]byte("passkey-123"), []byte(PasskeyKey))
	require.NoError(t, err)
	assert.NotContains(t, string(blob), "passkey-123")

	plain, err := s.Open(blob, []byte(PasskeyKey))
	require.NoError(t, err)
	assert.Equal(t, "passkey-123", string(plain))
}

func TestSealer_FreshNonceEachSeal(t *testing.T) {
	s, err := NewSealer("test-secret")
	require.NoError(t, err)

	a, err := s.Seal([]byte("same"), nil)
	require.NoError(t, err)
	b, err := s.Seal([]byte("same"), nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealer_RejectsWrongKeyNameOrSecret(t *testing.T) {
	s, err := NewSealer("test-secret")
	require.NoError(t, err)
	blob, err := s.Seal([]byte("v"), []byte("connectKey"))
	require.NoError(t, err)

	_, err = s.Open(blob, []byte("otherKey"))
	assert.Error(t, err)

	other, err := NewSealer("different-secret")
	require.NoError(t, err)
	_, err = other.Open(blob, []byte("connectKey"))
	assert.Error(t, err)
}

func TestSealer_ShortBlob(t *testing.T) {
	s, err := NewSealer("test-secret")
	require.NoError(t, err)
	_, err = s.Open([]byte{1, 2, 3}, nil)
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestNewSealer_EmptySecret(t *testing.T) {
	_, err := NewSealer("")
	assert.Error(t, err)
}
