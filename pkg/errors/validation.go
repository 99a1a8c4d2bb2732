package errors

import (
	"regexp"
	"strings"
)

// MaxScriptSize is the largest script, in bytes, accepted for evaluation.
const MaxScriptSize = 1 << 20

// ValidateScript checks script text before it is handed to the sandbox.
//
// The rules are conservative:
//   - No empty (or whitespace-only) scripts
//   - Maximum size of MaxScriptSize bytes
//   - No null bytes
func ValidateScript(source string) error {
	if strings.TrimSpace(source) == "" {
		return New(ErrCodeInvalidInput, "script cannot be empty")
	}

	if len(source) > MaxScriptSize {
		return New(ErrCodeInvalidInput, "script too large (max %d bytes)", MaxScriptSize)
	}

	if strings.ContainsRune(source, '\x00') {
		return New(ErrCodeInvalidInput, "script contains null bytes")
	}

	return nil
}

// stateIDRegex matches identifiers accepted in --active and ?active= lists.
var stateIDRegex = regexp.MustCompile(`^[A-Za-z0-9_$#.:()\- ]+$`)

// ValidateStateID validates a state node ID supplied by a user.
func ValidateStateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "state id cannot be empty")
	}
	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "state id too long (max 256 characters)")
	}
	if !stateIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid state id: %q", id)
	}
	return nil
}
