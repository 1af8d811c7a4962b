package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims s and collapses every run of whitespace to one space.
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

func NormalizeID(id string) string {
	return strings.TrimSpace(id)
}

// NormalizeObjectID lowercases a hex document id to the form the store
// writes.
func NormalizeObjectID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// NormalizeUUID lowercases a UUID-shaped identifier so ids from different
// clients compare equal.
func NormalizeUUID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
