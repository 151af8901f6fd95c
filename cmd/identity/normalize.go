package identity

import "strings"

// NormalizeEmail performs case-insensitive canonicalization.
// Note: for now we only trim + lower-case.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeName trims surrounding whitespace; case is preserved.
func NormalizeName(s string) string {
	return strings.TrimSpace(s)
}
