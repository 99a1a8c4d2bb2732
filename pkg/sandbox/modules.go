package sandbox

import (
	"github.com/dop251/goja"

	"github.com/matzehuels/stateviz/pkg/errors"
	"github.com/matzehuels/stateviz/pkg/machine"
	"github.com/matzehuels/stateviz/pkg/xstate"
)

// capture collects the definitions built during one evaluation.
type capture struct {
	defs []*machine.Definition
	err  error
}

func (c *capture) add(v goja.Value) {
	if def, ok := v.Export().(*machine.Definition); ok {
		c.defs = append(c.defs, def)
	}
}

// moduleProvider builds the exports of one importable module.
type moduleProvider func(*goja.Runtime, *capture) (*goja.Object, error)

func providers() map[string]moduleProvider {
	return map[string]moduleProvider{
		ModuleCore:    provideCore,
		ModuleActions: provideActions,
		ModuleModel:   provideModel,
	}
}

// newRequire returns the restricted module resolver. Modules are built on
// first use and shared by later requires of the same path.
func newRequire(rt *goja.Runtime, captured *capture, table map[string]moduleProvider) func(goja.FunctionCall) goja.Value {
	loaded := make(map[string]*goja.Object)
	return func(call goja.FunctionCall) goja.Value {
		path := call.Argument(0).String()
		if m, ok := loaded[path]; ok {
			return m
		}

		provide, ok := table[path]
		if !ok {
			// Interrupts cannot be caught by the script, unlike a thrown error.
			captured.err = &errors.ModuleError{Module: path}
			rt.Interrupt(captured.err)
			return goja.Undefined()
		}

		m, err := provide(rt, captured)
		if err != nil {
			panic(rt.NewGoError(err))
		}
		loaded[path] = m
		return m
	}
}

func provideCore(rt *goja.Runtime, captured *capture) (*goja.Object, error) {
	core := xstate.New(rt).Core()
	for _, name := range []string{"createMachine", "Machine"} {
		if err := core.Set(name, capturing(rt, captured, core.Get(name))); err != nil {
			return nil, err
		}
	}
	return core, nil
}

func provideActions(rt *goja.Runtime, _ *capture) (*goja.Object, error) {
	return xstate.New(rt).Actions(), nil
}

func provideModel(rt *goja.Runtime, captured *capture) (*goja.Object, error) {
	exports := xstate.New(rt).Model()
	createModel, ok := goja.AssertFunction(exports.Get("createModel"))
	if !ok {
		return nil, errors.New(errors.ErrCodeInternal, "model module has no createModel")
	}

	err := exports.Set("createModel", func(call goja.FunctionCall) goja.Value {
		v, err := createModel(call.This, call.Arguments...)
		if err != nil {
			xstate.Throw(rt, err)
		}
		model, ok := v.(*goja.Object)
		if !ok {
			return v
		}

		wrapped := rt.NewObject()
		for _, k := range model.Keys() {
			if err := wrapped.Set(k, model.Get(k)); err != nil {
				xstate.Throw(rt, err)
			}
		}
		if err := wrapped.Set("createMachine", capturing(rt, captured, model.Get("createMachine"))); err != nil {
			xstate.Throw(rt, err)
		}
		return wrapped
	})
	return exports, err
}

// capturing wraps a factory so that every value it returns is recorded.
// Arguments, this, return values and exceptions pass through unchanged.
func capturing(rt *goja.Runtime, captured *capture, factory goja.Value) goja.Value {
	fn, ok := goja.AssertFunction(factory)
	if !ok {
		return factory
	}
	return rt.ToValue(func(call goja.FunctionCall) goja.Value {
		v, err := fn(call.This, call.Arguments...)
		if err != nil {
			xstate.Throw(rt, err)
		}
		captured.add(v)
		return v
	})
}
