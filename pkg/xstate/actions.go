package xstate

import (
	"fmt"

	"github.com/dop251/goja"
)

// Action types of the built-in action creators.
const (
	ActionAssign = "xstate.assign"
	ActionSend   = "xstate.send"
	ActionRaise  = "xstate.raise"
	ActionLog    = "xstate.log"
	ActionChoose = "xstate.choose"
	ActionPure   = "xstate.pure"
	ActionStop   = "xstate.stop"
	ActionStart  = "xstate.start"
	ActionCancel = "xstate.cancel"
)

const parentTarget = "#_parent"

// Actions returns the exports of the action-helper module.
func (l *Library) Actions() *goja.Object {
	exports := l.rt.NewObject()
	for name, fn := range l.actionCreators() {
		l.set(exports, name, fn)
	}
	l.set(exports, "after", l.after)
	l.set(exports, "done", l.done)
	l.set(exports, "ActionTypes", l.actionTypes())
	return exports
}

// actionCreators returns the creators shared by the core and action modules.
func (l *Library) actionCreators() map[string]func(goja.FunctionCall) goja.Value {
	return map[string]func(goja.FunctionCall) goja.Value{
		"assign": func(c goja.FunctionCall) goja.Value {
			return l.action(ActionAssign, "assignment", c.Argument(0))
		},
		"send": func(c goja.FunctionCall) goja.Value {
			return l.send(c.Argument(0), c.Argument(1), nil)
		},
		"sendParent": func(c goja.FunctionCall) goja.Value {
			return l.send(c.Argument(0), c.Argument(1), l.rt.ToValue(parentTarget))
		},
		"sendTo": func(c goja.FunctionCall) goja.Value {
			return l.send(c.Argument(1), c.Argument(2), c.Argument(0))
		},
		"forwardTo": func(c goja.FunctionCall) goja.Value {
			return l.send(l.rt.ToValue("xstate.forward"), c.Argument(1), c.Argument(0))
		},
		"escalate": func(c goja.FunctionCall) goja.Value {
			ev := l.rt.NewObject()
			l.set(ev, "type", "xstate.error")
			l.set(ev, "data", c.Argument(0))
			return l.send(ev, c.Argument(1), l.rt.ToValue(parentTarget))
		},
		"respond": func(c goja.FunctionCall) goja.Value {
			return l.send(c.Argument(0), c.Argument(1), l.rt.ToValue("#_respond"))
		},
		"raise": func(c goja.FunctionCall) goja.Value {
			return l.action(ActionRaise, "event", l.toEvent(c.Argument(0)))
		},
		"log": func(c goja.FunctionCall) goja.Value {
			a := l.action(ActionLog, "expr", c.Argument(0))
			l.set(a, "label", c.Argument(1))
			return a
		},
		"choose": func(c goja.FunctionCall) goja.Value {
			return l.action(ActionChoose, "conds", c.Argument(0))
		},
		"pure": func(c goja.FunctionCall) goja.Value {
			return l.action(ActionPure, "get", c.Argument(0))
		},
		"stop": func(c goja.FunctionCall) goja.Value {
			return l.action(ActionStop, "activity", c.Argument(0))
		},
		"start": func(c goja.FunctionCall) goja.Value {
			return l.action(ActionStart, "activity", c.Argument(0))
		},
		"cancel": func(c goja.FunctionCall) goja.Value {
			return l.action(ActionCancel, "sendId", c.Argument(0))
		},
	}
}

func (l *Library) action(typ, key string, v goja.Value) *goja.Object {
	a := l.rt.NewObject()
	l.set(a, "type", typ)
	l.set(a, key, v)
	return a
}

func (l *Library) send(event, options, to goja.Value) goja.Value {
	a := l.action(ActionSend, "event", l.toEvent(event))
	if opts, ok := options.(*goja.Object); ok && isSet(options) {
		for _, k := range []string{"to", "delay", "id"} {
			if v := opts.Get(k); isSet(v) {
				l.set(a, k, v)
			}
		}
	}
	if to != nil && isSet(to) {
		l.set(a, "to", to)
	}
	return a
}

func (l *Library) toEvent(v goja.Value) goja.Value {
	if isString(v) {
		ev := l.rt.NewObject()
		l.set(ev, "type", v)
		return ev
	}
	return v
}

func (l *Library) after(c goja.FunctionCall) goja.Value {
	return l.rt.ToValue(fmt.Sprintf("xstate.after(%s)#%s", c.Argument(0).String(), c.Argument(1).String()))
}

func (l *Library) done(c goja.FunctionCall) goja.Value {
	ev := l.rt.NewObject()
	l.set(ev, "type", "done.state."+c.Argument(0).String())
	l.set(ev, "data", c.Argument(1))
	return ev
}

func (l *Library) actionTypes() *goja.Object {
	types := l.rt.NewObject()
	for k, v := range map[string]string{
		"Assign": ActionAssign,
		"Send":   ActionSend,
		"Raise":  ActionRaise,
		"Log":    ActionLog,
		"Choose": ActionChoose,
		"Pure":   ActionPure,
		"Stop":   ActionStop,
		"Start":  ActionStart,
		"Cancel": ActionCancel,
	} {
		l.set(types, k, v)
	}
	return types
}
