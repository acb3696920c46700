package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateDocumentID validates a stored document identifier.
// IDs become file names and Redis keys, so the rules are conservative:
//   - No empty IDs
//   - Maximum length of 128 characters
//   - Only letters, digits, dash, underscore and dot
//   - No path traversal sequences (..)
func ValidateDocumentID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "document id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "document id too long (max 128 characters)")
	}
	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidInput, "document id cannot contain ..")
	}
	if !documentIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "document id contains invalid characters: %q", id)
	}
	return nil
}

var documentIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidatePath validates a user-supplied output path for safety.
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateLabel checks that s is a single printable, non-space rune
// usable as a statement label.
func ValidateLabel(s string) (rune, error) {
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, New(ErrCodeInvalidInput, "statement label must be exactly one character, got %q", s)
	}
	r := runes[0]
	if !unicode.IsPrint(r) || unicode.IsSpace(r) {
		return 0, New(ErrCodeInvalidInput, "statement label %q is not printable", s)
	}
	return r, nil
}
