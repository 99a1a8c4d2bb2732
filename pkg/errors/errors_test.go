package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	err := New(ErrCodeInvalidTheme, "bad colour %q", "mauve")
	assert.Equal(t, ErrCodeInvalidTheme, err.Code)
	assert.Equal(t, `bad colour "mauve"`, err.Message)
	assert.Equal(t, `INVALID_THEME: bad colour "mauve"`, err.Error())

	cause := errors.New("ReferenceError: x is not defined")
	wrapped := Wrap(ErrCodeScriptRuntime, cause, "script threw")
	assert.Equal(t, "SCRIPT_RUNTIME_ERROR: script threw: ReferenceError: x is not defined", wrapped.Error())
	assert.Same(t, cause, errors.Unwrap(wrapped))
	assert.ErrorIs(t, wrapped, cause)
}

func TestGetCodeAndIs(t *testing.T) {
	module := &ModuleError{Module: "child_process"}
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"coded", New(ErrCodeParse, "x"), ErrCodeParse},
		{"outermost wins", Wrap(ErrCodeLayout, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeLayout},
		{"fmt wrapped", fmt.Errorf("render: %w", New(ErrCodeTimeout, "x")), ErrCodeTimeout},
		{"module", module, ErrCodeModuleNotAllowed},
		{"wrapped module", fmt.Errorf("eval: %w", module), ErrCodeModuleNotAllowed},
		{"plain", errors.New("plain"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCode(tt.err))
			assert.Equal(t, tt.want != "", Is(tt.err, tt.want))
			assert.False(t, Is(tt.err, ErrCodeFileNotFound))
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "friendly", UserMessage(fmt.Errorf("ctx: %w", New(ErrCodeInvalidInput, "friendly"))))
	assert.Equal(t, "plain", UserMessage(errors.New("plain")))
}

func TestModuleError(t *testing.T) {
	err := &ModuleError{Module: "fs"}
	assert.Equal(t, `external module ("fs") can't be used`, err.Error())

	var me *ModuleError
	require.ErrorAs(t, Wrap(ErrCodeModuleNotAllowed, err, "require %q", "fs"), &me)
	assert.Equal(t, "fs", me.Module)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{New(ErrCodeParse, "x"), KindScript},
		{&ModuleError{Module: "net"}, KindScript},
		{New(ErrCodeScriptRuntime, "x"), KindScript},
		{New(ErrCodeInvalidMachine, "x"), KindScript},
		{New(ErrCodeInvalidTheme, "x"), KindInput},
		{New(ErrCodeUnsupported, "x"), KindInput},
		{New(ErrCodeMachineNotFound, "x"), KindNotFound},
		{New(ErrCodeTimeout, "x"), KindTimeout},
		{New(ErrCodeLayout, "x"), KindInternal},
		{New(Code("SOMETHING_NEW"), "x"), KindInternal},
		{errors.New("plain"), KindInternal},
		{nil, KindInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err), "%v", tt.err)
		assert.Equal(t, tt.want == KindScript, IsScriptError(tt.err), "%v", tt.err)
	}
}
