package xstate

import "github.com/dop251/goja"

// CreateModel is the model factory: createModel(initialContext, creators?).
//
// The returned model exposes initialContext, event creators, the supplied
// action creators, assign, reset and a createMachine method that defaults
// the machine context to initialContext.
func (l *Library) CreateModel(call goja.FunctionCall) goja.Value {
	initial := call.Argument(0)
	creators, _ := call.Argument(1).(*goja.Object)

	model := l.rt.NewObject()
	l.set(model, "initialContext", initial)
	l.set(model, "events", l.eventCreators(creators))
	l.set(model, "actions", l.modelActions(creators))
	l.set(model, "assign", func(c goja.FunctionCall) goja.Value {
		return l.action(ActionAssign, "assignment", c.Argument(0))
	})
	l.set(model, "reset", func(goja.FunctionCall) goja.Value {
		return l.action(ActionAssign, "assignment", initial)
	})
	l.set(model, "createMachine", func(c goja.FunctionCall) goja.Value {
		def, err := l.build(c.Argument(0), c.Argument(1), initial)
		if err != nil {
			Throw(l.rt, err)
		}
		return l.rt.ToValue(def)
	})
	return model
}

func (l *Library) eventCreators(creators *goja.Object) *goja.Object {
	events := l.rt.NewObject()
	if creators == nil {
		return events
	}
	defs, ok := creators.Get("events").(*goja.Object)
	if !ok {
		return events
	}

	for _, name := range defs.Keys() {
		fn, ok := goja.AssertFunction(defs.Get(name))
		if !ok {
			continue
		}
		l.set(events, name, func(c goja.FunctionCall) goja.Value {
			payload, err := fn(goja.Undefined(), c.Arguments...)
			if err != nil {
				Throw(l.rt, err)
			}
			ev := l.rt.NewObject()
			if p, ok := payload.(*goja.Object); ok && isSet(payload) {
				for _, k := range p.Keys() {
					l.set(ev, k, p.Get(k))
				}
			}
			l.set(ev, "type", name)
			return ev
		})
	}
	return events
}

func (l *Library) modelActions(creators *goja.Object) goja.Value {
	if creators != nil {
		if a := creators.Get("actions"); isSet(a) {
			return a
		}
	}
	return l.rt.NewObject()
}
