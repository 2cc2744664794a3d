package ipa

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// passwordAlphabet is the documented character set for generated temporary
// credentials: upper and lower case letters plus digits.
const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// DefaultPasswordLength is the length of generated temporary credentials.
const DefaultPasswordLength = 12

// Default phone normalization prefixes. The stripping heuristic is
// locale-specific; both prefixes are configurable at the server level.
const (
	DefaultCountryCode = "+90"
	DefaultTrunkPrefix = "0"
)

// GeneratePassword returns a cryptographically random credential of the
// given length drawn from the password alphabet. Non-positive lengths use
// the default.
func GeneratePassword(length int) (string, error) {
	if length <= 0 {
		length = DefaultPasswordLength
	}

	var b strings.Builder
	b.Grow(length)

	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}

	return b.String(), nil
}

// NormalizePhone reduces a phone number to a comparable form: the country
// code prefix is stripped, then a single leading trunk digit, then all
// spaces and hyphens.
func NormalizePhone(phone, countryCode, trunkPrefix string) string {
	normalized := phone
	if countryCode != "" {
		normalized = strings.TrimPrefix(normalized, countryCode)
	}
	if trunkPrefix != "" {
		normalized = strings.TrimPrefix(normalized, trunkPrefix)
	}
	normalized = strings.ReplaceAll(normalized, " ", "")
	return strings.ReplaceAll(normalized, "-", "")
}

// MatchPhone reports whether the supplied number matches one of the stored
// numbers after normalization. An empty stored set never matches.
func MatchPhone(stored []string, supplied, countryCode, trunkPrefix string) bool {
	if len(stored) == 0 {
		return false
	}

	want := NormalizePhone(supplied, countryCode, trunkPrefix)
	for _, s := range stored {
		if NormalizePhone(s, countryCode, trunkPrefix) == want {
			return true
		}
	}
	return false
}
