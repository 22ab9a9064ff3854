package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// nameRegex matches scene names: they end up in cache keys and file names.
var nameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateName validates a scene name for use as a state key.
//
// Validation rules:
//   - Name cannot be empty
//   - Maximum length of 128 characters
//   - Letters, digits, '.', '_' and '-' only, not starting with punctuation
//   - No ".." sequences
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "name cannot be empty")
	}

	const maxNameLength = 128
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "name too long (max %d characters)", maxNameLength)
	}

	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidName, "name cannot contain \"..\"")
	}

	if !nameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid name: %q", name)
	}

	return nil
}

// ValidatePath validates a scene or style file path given on the command
// line.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}
