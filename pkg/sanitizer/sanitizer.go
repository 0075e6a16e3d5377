// Package sanitizer normalizes free-text input before validation:
// trimming, whitespace collapsing, and light field-specific cleanup.
package sanitizer

import (
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

// NormalizeNotes keeps interior newlines (notes are free text) but
// trims the ends and strips control characters.
func NormalizeNotes(notes string) string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return ""
	}

	var result strings.Builder
	for _, r := range notes {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// NormalizeMobile strips spaces and dashes so "+972 54-123-4567"
// and "+972541234567" compare equal.
func NormalizeMobile(mobile string) string {
	var result strings.Builder
	for _, r := range strings.TrimSpace(mobile) {
		if r == ' ' || r == '-' {
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}
