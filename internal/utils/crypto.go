// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

func GenerateRandomString(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}

	return string(b), nil
}

// GeneratePaymentReference returns an opaque reference correlating a checkout
// with the provider's transaction record.
func GeneratePaymentReference() (string, error) {
	randomPart, err := GenerateRandomString(24)
	if err != nil {
		return "", err
	}
	return "ut_" + randomPart, nil
}

// Slugify derives a URL-safe slug from a display name.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	lastDash := true
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
