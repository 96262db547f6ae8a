package commerce

import (
	"math/rand"
	"strings"
)

// GenerateLocaleCode builds a 7-character locale code: the first three
// ASCII letters of the commerce display name, uppercased and
// right-padded with 'X', followed by four distinct digits drawn
// uniformly at random. The result always matches ^[A-Z]{3}[0-9]{4}$.
//
// Uniqueness across the locales table is advisory only; callers that
// need it must check storage and retry (see uniqueLocaleCode).
func GenerateLocaleCode(commerceName string) string {
	var prefix strings.Builder
	for _, r := range commerceName {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			if r >= 'a' {
				r -= 'a' - 'A'
			}
			prefix.WriteRune(r)
			if prefix.Len() == 3 {
				break
			}
		}
	}
	for prefix.Len() < 3 {
		prefix.WriteByte('X')
	}

	// Rejection-sample until four distinct digits are collected.
	var seen [10]bool
	var digits strings.Builder
	for digits.Len() < 4 {
		d := rand.Intn(10)
		if seen[d] {
			continue
		}
		seen[d] = true
		digits.WriteByte(byte('0' + d))
	}

	return prefix.String() + digits.String()
}
