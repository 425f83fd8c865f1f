package auth_test

import (
	"strings"
	"testing"
	"unicode"

	"taskFlow/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePassword_Composition(t *testing.T) {
	for _, length := range []int{4, 12, 32} {
		for i := 0; i < 100; i++ {
			pwd, err := auth.GeneratePassword(length)
			require.NoError(t, err)
			require.Len(t, pwd, length)

			var upper, lower, digit, symbol bool
			for _, r := range pwd {
				switch {
				case unicode.IsUpper(r):
					upper = true
				case unicode.IsLower(r):
					lower = true
				case unicode.IsDigit(r):
					digit = true
				default:
					symbol = true
					assert.True(t, strings.ContainsRune("!@#$%^&*", r), pwd)
				}
			}
			assert.True(t, upper && lower && digit && symbol, pwd)
		}
	}
}

func TestGeneratePassword_TooShort(t *testing.T) {
	_, err := auth.GeneratePassword(3)
	assert.Error(t, err)
}

func TestPasswordHasher(t *testing.T) {
	h := auth.NewPasswordHasher(4)

	hash, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.True(t, h.Verify("secret1", hash))
	assert.False(t, h.Verify("secret2", hash))
}
