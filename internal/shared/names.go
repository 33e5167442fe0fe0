package shared

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName trims surrounding space and applies Unicode NFC so that
// visually identical usernames and role/permission names compare equal.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// OptionalString returns nil for blank values, otherwise a trimmed copy.
func OptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
