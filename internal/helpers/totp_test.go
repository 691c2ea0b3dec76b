package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidCode(t *testing.T) {
	valid := []string{"000000", "123456", "999999"}
	for _, code := range valid {
		assert.True(t, IsValidCode(code), code)
	}

	invalid := []string{"", "12345", "1234567", "12345a", "12 456", "123456\n", "١٢٣٤٥٦"}
	for _, code := range invalid {
		assert.False(t, IsValidCode(code), code)
	}
}

func TestIsPartialCode(t *testing.T) {
	assert.True(t, IsPartialCode(""))
	assert.True(t, IsPartialCode("1"))
	assert.True(t, IsPartialCode("123456"))
	assert.False(t, IsPartialCode("1234567"))
	assert.False(t, IsPartialCode("12a"))
}

func TestExtractDigits(t *testing.T) {
	t.Run("separators are dropped", func(t *testing.T) {
		assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"},
			ExtractDigits("12-34 56", 6))
	})

	t.Run("extra digits are cut at max", func(t *testing.T) {
		assert.Equal(t, []string{"1", "2", "3"}, ExtractDigits("123456789", 3))
	})

	t.Run("no digits yields empty", func(t *testing.T) {
		assert.Empty(t, ExtractDigits("abc def", 6))
	})

	t.Run("non-positive max falls back to code length", func(t *testing.T) {
		assert.Len(t, ExtractDigits("0123456789", 0), 6)
	})
}

func TestParseEnrollmentURI(t *testing.T) {
	key, err := ParseEnrollmentURI("otpauth://totp/AuthWeb:alice@example.com?secret=JBSWY3DPEHPK3PXP&issuer=AuthWeb")
	require.NoError(t, err)
	assert.Equal(t, "AuthWeb", key.Issuer())
	assert.Equal(t, "alice@example.com", key.AccountName())
	assert.Equal(t, "JBSWY3DPEHPK3PXP", key.Secret())

	_, err = ParseEnrollmentURI("://not-a-uri")
	assert.Error(t, err)
}
