// Package shared provides common utility functions used across multiple
// packages in the pyrelax codebase.
package shared

import (
	"fmt"
	"regexp"
	"strings"
)

var packageNameSeparators = regexp.MustCompile(`[-_.]+`)

// NormalizePackageName lowercases a Python package name and collapses
// runs of hyphens, underscores and dots into single hyphens, following
// PEP 503 normalization.
func NormalizePackageName(value string) string {
	lower := strings.ToLower(strings.TrimSpace(value))
	return packageNameSeparators.ReplaceAllString(lower, "-")
}

// CommandError wraps a command execution error with its trimmed output
// for cleaner error messages.
func CommandError(output []byte, err error) error {
	return fmt.Errorf("%s: %w", strings.TrimSpace(string(output)), err)
}
