package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Password1!", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "Password1!", hash)

	assert.True(t, VerifyPassword(hash, "Password1!"))
	assert.False(t, VerifyPassword(hash, "password1!"))
	assert.False(t, VerifyPassword(hash, ""))
}

func TestHashPassword_DistinctSalts(t *testing.T) {
	h1, err := HashPassword("Password1!", bcrypt.MinCost)
	require.NoError(t, err)
	h2, err := HashPassword("Password1!", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
