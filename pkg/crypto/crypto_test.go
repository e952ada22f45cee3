package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	s, err := NewSealer("short key")
	require.NoError(t, err)

	a, err := s.Seal("refresh-token")
	require.NoError(t, err)
	b, err := s.Seal("refresh-token")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "nonce must differ per seal")

	plain, err := s.Open(a)
	require.NoError(t, err)
	assert.Equal(t, "refresh-token", plain)
}

func TestMatches(t *testing.T) {
	s, err := NewSealer("key-one")
	require.NoError(t, err)
	other, err := NewSealer("key-two")
	require.NoError(t, err)

	sealed, err := s.Seal("token-a")
	require.NoError(t, err)

	assert.True(t, s.Matches(sealed, "token-a"))
	assert.False(t, s.Matches(sealed, "token-b"))
	assert.False(t, other.Matches(sealed, "token-a"))
	assert.False(t, s.Matches("not base64!", "token-a"))
	assert.False(t, s.Matches("", "token-a"))
}

func TestOpenShortCiphertext(t *testing.T) {
	s, err := NewSealer("k")
	require.NoError(t, err)
	_, err = s.Open("AAAA")
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}
