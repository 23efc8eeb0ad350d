package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func TestSessionToken_IssueAndParse(t *testing.T) {
	tok, err := NewSessionToken(testSecret, "user-123", 7*24*time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Token)
	assert.WithinDuration(t, time.Now().UTC().Add(7*24*time.Hour), tok.ExpiresAt, time.Minute)

	claims, err := ParseSessionToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.WithinDuration(t, tok.IssuedAt, claims.IssuedAt, time.Second)
}

func TestParseSessionToken_Expired(t *testing.T) {
	tok, err := NewSessionToken(testSecret, "user-123", -time.Minute)
	require.NoError(t, err)

	_, err = ParseSessionToken(testSecret, tok.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseSessionToken_WrongSecret(t *testing.T) {
	tok, err := NewSessionToken(testSecret, "user-123", time.Hour)
	require.NoError(t, err)

	_, err = ParseSessionToken("a different secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseSessionToken_Malformed(t *testing.T) {
	for _, raw := range []string{"", "garbage", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.e30."} {
		_, err := ParseSessionToken(testSecret, raw)
		assert.ErrorIs(t, err, ErrInvalidToken, "raw=%q", raw)
	}
}
