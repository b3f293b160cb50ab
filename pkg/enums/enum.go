package enums

import (
	"fmt"
	"slices"
	"strings"
)

// parse matches value against the allowed set after normalizing it. kind
// names the enum in the error.
func parse[T ~string](kind, value string, allowed []T, normalize func(string) string) (T, error) {
	candidate := T(value)
	if normalize != nil {
		candidate = T(normalize(value))
	}
	if slices.Contains(allowed, candidate) {
		return candidate, nil
	}
	return "", fmt.Errorf("invalid %s %q", kind, value)
}

func upper(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

func lower(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
