package domain

import (
	"regexp"
	"strings"
	"unicode"
)

var mobilePattern = regexp.MustCompile(`^0\d{9}$`)

// NormalizePhone strips whitespace and common separators and checks the result is a
// ten digit mobile number starting with 0.
func NormalizePhone(raw string) (string, bool) {
	normalized := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '.' || r == '-' {
			return -1
		}
		return r
	}, raw)
	if !mobilePattern.MatchString(normalized) {
		return "", false
	}
	return normalized, true
}
