// Package env reads single environment variables outside the CB_-prefixed
// config block, e.g. the PORT injected by the container platform.
package env

import "os"

// Get returns the variable's value, or fallback when unset or empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
