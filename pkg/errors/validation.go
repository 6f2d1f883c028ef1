package errors

import (
	"strings"
	"unicode"
)

// ValidateModuleName validates a module name before it becomes a key in a
// project's module list.
//
// Rules:
//   - No empty names
//   - No control characters
//   - No leading or trailing whitespace
//   - Maximum length of 128 characters
func ValidateModuleName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "module name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "module name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "module name contains invalid control characters")
		}
	}

	if strings.TrimSpace(name) != name {
		return New(ErrCodeInvalidInput, "module name cannot start or end with whitespace")
	}

	return nil
}

// ValidateStoreKey validates a project key used by the storage backends.
// Keys become file names and database keys, so path separators are rejected.
func ValidateStoreKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "project key cannot be empty")
	}

	if len(key) > 256 {
		return New(ErrCodeInvalidInput, "project key too long (max 256 characters)")
	}

	for _, r := range key {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "project key contains invalid characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(key, pattern) {
			return New(ErrCodeInvalidInput, "project key contains invalid characters: %q", pattern)
		}
	}

	return nil
}
