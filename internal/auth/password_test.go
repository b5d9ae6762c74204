package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("Password123!", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotContains(t, hash, "Password123!")
	assert.True(t, ComparePassword(hash, "Password123!"))
	assert.False(t, ComparePassword(hash, "password123!"))
}

func TestComparePasswordRejectsMalformedHash(t *testing.T) {
	assert.False(t, ComparePassword("invalid-hash-format", "Password123!"))
}

func TestHashPasswordTooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", 73), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
