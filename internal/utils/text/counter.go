// Package text holds rune-aware helpers shared by the ingestion pipelines.
// Lengths are counted in Unicode characters, not bytes, so limits behave the
// same for ASCII, accented and CJK text.
package text

import (
	"strings"
	"unicode/utf8"
)

// CountRunes counts the number of Unicode characters (runes) in the given text.
//
//	CountRunes("hello")     // 5
//	CountRunes("héllo")     // 5
//	CountRunes("日本語")     // 3
func CountRunes(text string) int {
	return utf8.RuneCountInString(text)
}

// Truncate cuts text to at most n runes. A multi-byte character is never split.
func Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if CountRunes(text) <= n {
		return text
	}
	return string([]rune(text)[:n])
}

// CollapseSpace trims text and replaces every run of whitespace with one space.
func CollapseSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
