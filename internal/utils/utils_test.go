package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", "admin", "admin", 15)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), tok.Exp, 5*time.Second)

	claims, err := ParseAccessToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims["sub"])
	assert.Equal(t, "admin", claims["role"])
}

func TestParseAccessTokenRejects(t *testing.T) {
	tok, err := NewAccessToken("secret", "admin", "admin", 15)
	require.NoError(t, err)

	_, err = ParseAccessToken("other", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewAccessToken("secret", "admin", "admin", -1)
	require.NoError(t, err)
	_, err = ParseAccessToken("secret", expired.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseAccessToken("secret", none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseAccessToken("secret", "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter2", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, VerifyPassword(hash, "hunter2"))
	assert.False(t, VerifyPassword(hash, "hunter3"))
	assert.False(t, VerifyPassword("not-a-hash", "hunter2"))
}
