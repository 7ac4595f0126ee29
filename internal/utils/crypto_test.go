// internal/utils/crypto_test.go
package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Summer Drop 2026", "summer-drop-2026"},
		{"  Back to Basics  ", "back-to-basics"},
		{"Tees & Hoodies!", "tees-hoodies"},
		{"already-a-slug", "already-a-slug"},
		{"---", ""},
		{"Größe", "gr-e"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "Slugify(%q)", tt.in)
	}
}

func TestGeneratePaymentReference(t *testing.T) {
	ref1, err := GeneratePaymentReference()
	require.NoError(t, err)
	ref2, err := GeneratePaymentReference()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref1, "ut_"))
	assert.Len(t, ref1, 27)
	assert.NotEqual(t, ref1, ref2)
}

func TestGenerateRandomStringLength(t *testing.T) {
	s, err := GenerateRandomString(32)
	require.NoError(t, err)
	assert.Len(t, s, 32)
}
