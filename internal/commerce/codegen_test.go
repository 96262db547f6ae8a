package commerce

import (
	"regexp"
	"testing"
)

var codePattern = regexp.MustCompile(`^[A-Z]{3}[0-9]{4}$`)

func TestGenerateLocaleCodeFormat(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := GenerateLocaleCode("Acme Exchange")
		if !codePattern.MatchString(code) {
			t.Fatalf("code %q does not match expected format", code)
		}
		seen := map[byte]bool{}
		for _, d := range []byte(code[3:]) {
			if seen[d] {
				t.Fatalf("code %q repeats digit %c", code, d)
			}
			seen[d] = true
		}
	}
}

func TestGenerateLocaleCodePrefix(t *testing.T) {
	cases := []struct {
		name   string
		prefix string
	}{
		{"Acme Exchange", "ACM"},
		{"ab", "ABX"},
		{"", "XXX"},
		{"12 go!", "GOX"},
		{"ñandú corp", "AND"},
	}
	for _, tc := range cases {
		code := GenerateLocaleCode(tc.name)
		if code[:3] != tc.prefix {
			t.Errorf("GenerateLocaleCode(%q) prefix = %q, want %q", tc.name, code[:3], tc.prefix)
		}
	}
}
