package config

import "os"

// Get reads an environment variable with a fallback so composition roots
// stay lean.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
