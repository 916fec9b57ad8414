package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("om-namah")
	require.NoError(t, err)

	assert.NotEqual(t, "om-namah", hash)
	assert.True(t, CheckPasswordHash("om-namah", hash))
	assert.False(t, CheckPasswordHash("om-namaha", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken(secret, "acc-1", 2, "Meera", 3)
	require.NoError(t, err)

	claims, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.AccountID)
	assert.Equal(t, 2, claims.Slot)
	assert.Equal(t, "Meera", claims.Name)
	assert.Equal(t, 3, claims.Version)
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	token, err := GenerateToken([]byte("one"), "acc-1", 1, "A", 0)
	require.NoError(t, err)

	_, err = ParseToken([]byte("two"), token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken([]byte("one"), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
