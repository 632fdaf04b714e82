package validators

import (
	"strings"
	"unicode"
)

// SanitizeLine cleans single-line input such as product names: every control
// character, newlines included, becomes a space, runs of spaces collapse and
// the result is cut to maxLen runes.
func SanitizeLine(input string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, input)
	return truncateRunes(strings.Join(strings.Fields(cleaned), " "), maxLen)
}

// SanitizeText cleans free text such as order notes and review comments.
// Newlines and tabs survive; other control characters are dropped.
func SanitizeText(input string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if r != '\n' && r != '\t' && unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
	return truncateRunes(strings.TrimSpace(cleaned), maxLen)
}

func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return strings.TrimSpace(string(runes[:maxLen]))
}
