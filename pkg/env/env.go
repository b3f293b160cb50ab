package env

import (
	"os"
	"strings"
)

// Lookup returns the first of keys that is set to a non-blank value.
func Lookup(keys ...string) (string, bool) {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val, true
		}
	}
	return "", false
}

func Get(key, fallback string) string {
	if val, ok := Lookup(key); ok {
		return val
	}
	return fallback
}
