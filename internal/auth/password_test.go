package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret!")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, CheckPassword("Sup3rSecret!", hash))
	assert.False(t, CheckPassword("wrong-password", hash))
	assert.False(t, CheckPassword("Sup3rSecret!", "not-a-hash"))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		expected error
	}{
		{"too short", "Ab1!", ErrPasswordTooShort},
		{"only lowercase", "abcdefgh", ErrPasswordTooWeak},
		{"two classes", "abcdefg1", ErrPasswordTooWeak},
		{"upper lower number", "Abcdefg1", nil},
		{"lower number special", "abcdef1!", nil},
		{"all four classes", "Abcdef1!", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expected)
			}
		})
	}
}
