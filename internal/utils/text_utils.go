package utils

import (
	"strings"
	"unicode/utf8"
)

// SanitizeUTF8 drops invalid UTF-8 sequences from text
func SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}
	return strings.ToValidUTF8(text, "")
}

// TruncateRunes cuts text to at most maxRunes runes, appending "..." when
// something was cut. maxRunes <= 0 disables truncation.
func TruncateRunes(text string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	n := 0
	for i := range text {
		if n == maxRunes {
			return text[:i] + "..."
		}
		n++
	}
	return text
}

// Preview flattens whitespace and truncates text for one-line display
func Preview(text string, maxRunes int) string {
	return TruncateRunes(strings.Join(strings.Fields(SanitizeUTF8(text)), " "), maxRunes)
}
