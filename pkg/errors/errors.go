// Package errors defines the coded errors shared by the library packages,
// the CLI and the HTTP server.
//
// Every failure a user can act on carries a [Code]. Codes are grouped into
// a [Kind] that tells the caller whose fault it was: the server turns kinds
// into HTTP statuses, and the pipeline tags its metrics with the code.
//
//	err := errors.New(errors.ErrCodeInvalidTheme, "bad colour %q", v)
//	if errors.KindOf(err) == errors.KindInput { ... }
package errors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error identifier.
type Code string

const (
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidMachine Code = "INVALID_MACHINE"
	ErrCodeInvalidTheme   Code = "INVALID_THEME"
	ErrCodeUnsupported    Code = "UNSUPPORTED"

	ErrCodeParse            Code = "PARSE_ERROR"
	ErrCodeModuleNotAllowed Code = "MODULE_NOT_ALLOWED"
	ErrCodeScriptRuntime    Code = "SCRIPT_RUNTIME_ERROR"
	ErrCodeTimeout          Code = "TIMEOUT"

	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeMachineNotFound Code = "MACHINE_NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"

	ErrCodeLayout   Code = "LAYOUT_FAILED"
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Kind groups codes by who has to act on them.
type Kind int

const (
	KindInternal Kind = iota // a bug or an infrastructure failure
	KindInput                // the request or flags were malformed
	KindScript               // evaluating the user's script failed
	KindNotFound
	KindTimeout
)

var kindOfCode = map[Code]Kind{
	ErrCodeInvalidInput:     KindInput,
	ErrCodeInvalidFormat:    KindInput,
	ErrCodeInvalidTheme:     KindInput,
	ErrCodeUnsupported:      KindInput,
	ErrCodeInvalidMachine:   KindScript,
	ErrCodeParse:            KindScript,
	ErrCodeModuleNotAllowed: KindScript,
	ErrCodeScriptRuntime:    KindScript,
	ErrCodeTimeout:          KindTimeout,
	ErrCodeNotFound:         KindNotFound,
	ErrCodeMachineNotFound:  KindNotFound,
	ErrCodeFileNotFound:     KindNotFound,
}

// Kind returns the group of c. Unknown codes are internal.
func (c Code) Kind() Kind { return kindOfCode[c] }

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap is [New] with a cause, which stays reachable through errors.Is/As.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// GetCode returns the code of the outermost coded error in err's chain,
// or "" if there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var m *ModuleError
	if errors.As(err, &m) {
		return m.Code()
	}
	return ""
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	return code != "" && GetCode(err) == code
}

// KindOf returns the kind of err's code. Uncoded errors are internal.
func KindOf(err error) Kind {
	return GetCode(err).Kind()
}

// IsScriptError reports whether err was caused by the evaluated script
// rather than by the host.
func IsScriptError(err error) bool {
	return KindOf(err) == KindScript
}

// UserMessage returns the message of a coded error without its code, or
// err.Error() for anything else.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// ModuleError reports a require() of a module outside the allow-list.
type ModuleError struct {
	Module string // the path exactly as the script wrote it
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("external module (%q) can't be used", e.Module)
}

// Code is always [ErrCodeModuleNotAllowed].
func (e *ModuleError) Code() Code { return ErrCodeModuleNotAllowed }
