package xstate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"

	serrors "github.com/matzehuels/stateviz/pkg/errors"
	"github.com/matzehuels/stateviz/pkg/machine"
)

// Module paths served by the library.
const (
	CorePath    = "xstate"
	ActionsPath = "xstate/lib/actions"
	ModelPath   = "xstate/lib/model"
)

// Library builds module exports bound to a single runtime.
type Library struct {
	rt *goja.Runtime
}

// New returns a library bound to rt. It configures rt to expose Go values
// through their JSON field names and lower-cased method names.
func New(rt *goja.Runtime) *Library {
	rt.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	return &Library{rt: rt}
}

// Core returns the exports of the core module.
func (l *Library) Core() *goja.Object {
	exports := l.rt.NewObject()
	l.set(exports, "createMachine", l.CreateMachine)
	l.set(exports, "Machine", l.Machine)
	l.set(exports, "matchesState", l.matchesState)
	l.set(exports, "createSchema", func(call goja.FunctionCall) goja.Value { return call.Argument(0) })
	l.set(exports, "actions", l.Actions())
	l.set(exports, "ActionTypes", l.actionTypes())
	for name, fn := range l.actionCreators() {
		l.set(exports, name, fn)
	}
	return exports
}

// Model returns the exports of the model-helper module.
func (l *Library) Model() *goja.Object {
	exports := l.rt.NewObject()
	l.set(exports, "createModel", l.CreateModel)
	return exports
}

// CreateMachine is the primary machine factory:
// createMachine(config, implementations?).
func (l *Library) CreateMachine(call goja.FunctionCall) goja.Value {
	def, err := l.build(call.Argument(0), call.Argument(1), nil)
	if err != nil {
		Throw(l.rt, err)
	}
	return l.rt.ToValue(def)
}

// Machine is the legacy factory: Machine(config, implementations?, context?).
func (l *Library) Machine(call goja.FunctionCall) goja.Value {
	def, err := l.build(call.Argument(0), call.Argument(1), nil)
	if err != nil {
		Throw(l.rt, err)
	}
	if ctx := call.Argument(2); isSet(ctx) {
		v, err := newReader().plain(ctx)
		if err != nil {
			Throw(l.rt, invalidConfig(fmt.Errorf("context: %w", err)))
		}
		def = def.WithContext(v)
	}
	return l.rt.ToValue(def)
}

// build converts script values into a definition. A non-nil context
// overrides a missing config context.
func (l *Library) build(config, implementations, context goja.Value) (*machine.Definition, error) {
	obj, ok := config.(*goja.Object)
	if !ok || !isSet(config) {
		return nil, serrors.New(serrors.ErrCodeInvalidMachine, "machine config must be an object")
	}

	r := newReader()
	cfg, err := r.machineConfig(obj)
	if err != nil {
		return nil, invalidConfig(err)
	}
	if cfg.Context == nil && context != nil && isSet(context) {
		if cfg.Context, err = r.plain(context); err != nil {
			return nil, invalidConfig(fmt.Errorf("context: %w", err))
		}
	}
	if cfg.Implementations, err = r.implementations(implementations); err != nil {
		return nil, invalidConfig(fmt.Errorf("implementations: %w", err))
	}
	return machine.New(cfg)
}

// invalidConfig marks a conversion failure as an invalid machine unless it
// already carries a code.
func invalidConfig(err error) error {
	if serrors.GetCode(err) != "" {
		return err
	}
	return serrors.Wrap(serrors.ErrCodeInvalidMachine, err, "invalid machine config")
}

func (l *Library) matchesState(call goja.FunctionCall) goja.Value {
	parent, child := call.Argument(0), call.Argument(1)
	if !isString(parent) || !isString(child) {
		return l.rt.ToValue(false)
	}
	p, c := parent.String(), child.String()
	return l.rt.ToValue(c == p || strings.HasPrefix(c, p+"."))
}

// set assigns a property on an object created by this library. Errors are
// impossible for ordinary extensible objects.
func (l *Library) set(obj *goja.Object, name string, v any) {
	_ = obj.Set(name, v)
}

// Throw raises err inside the runtime as a script exception. Script
// exceptions are re-raised unchanged; interrupts stay uncatchable.
func Throw(rt *goja.Runtime, err error) {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		panic(ex)
	}
	var ie *goja.InterruptedError
	if errors.As(err, &ie) {
		rt.Interrupt(ie.Value())
	}
	panic(rt.NewGoError(err))
}
