package utils

import "strings"

// Truncate caps s at max characters, reserving room for an ellipsis marker.
// Counts runes, not bytes, so multi-byte text never gets split mid-character.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// ContainsFold reports whether any entry of haystack equals needle
// case-insensitively.
func ContainsFold(needle string, haystack []string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
