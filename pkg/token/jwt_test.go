package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseAccessToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 30, 720)

	tokenString, err := tm.GenerateAccessToken(42, "abcDEF1234567890abcd")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := tm.ParseToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "abcDEF1234567890abcd", claims.DeviceID)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", 30, 720)
	other := NewTokenManager("secret-b", 30, 720)

	tokenString, err := tm.GenerateAccessToken(1, "abcDEF1234567890abcd")
	require.NoError(t, err)

	_, err = other.ParseToken(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", 0, 720)

	tokenString, err := tm.GenerateAccessToken(1, "abcDEF1234567890abcd")
	require.NoError(t, err)

	_, err = tm.ParseToken(tokenString)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", 30, 720)

	_, err := tm.ParseToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateRefreshToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 30, 720)

	seen := make(map[string]bool)
	for range 100 {
		token := tm.GenerateRefreshToken()
		assert.Len(t, token, 64)
		assert.NotContains(t, token, "-")
		assert.False(t, seen[token], "refresh tokens must be unique")
		seen[token] = true
	}
}

func TestTTLAccessors(t *testing.T) {
	tm := NewTokenManager("test-secret", 15, 48)

	assert.Equal(t, 15*time.Minute, tm.AccessTTL())
	assert.Equal(t, 48*time.Hour, tm.RefreshTTL())
}
