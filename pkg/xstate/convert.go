package xstate

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/dop251/goja"
	"github.com/mitchellh/mapstructure"

	"github.com/matzehuels/stateviz/pkg/machine"
)

// Conversion runs in host code, where Runtime.Interrupt cannot stop it, so
// the work spent on one configuration is capped.
const (
	maxDepth    = 64     // objects on one path from the root
	maxElements = 10_000 // array length
	maxValues   = 100_000
)

var (
	errCyclic       = errors.New("config refers to itself")
	errTooDeep      = fmt.Errorf("config nested deeper than %d levels", maxDepth)
	errTooManyItems = fmt.Errorf("config holds more than %d values", maxValues)

	typeString     = reflect.TypeOf("")
	typeDefinition = reflect.TypeOf((*machine.Definition)(nil))
)

// reader converts one factory call's arguments. It tracks the objects on
// the current path and counts every value it reads.
type reader struct {
	path   map[*goja.Object]bool
	values int
}

func newReader() *reader {
	return &reader{path: make(map[*goja.Object]bool)}
}

// spend charges n values against the budget.
func (r *reader) spend(n int) error {
	r.values += n
	if r.values > maxValues {
		return errTooManyItems
	}
	return nil
}

// enter marks obj as being read. Each successful enter is paired with leave.
func (r *reader) enter(obj *goja.Object) error {
	switch {
	case r.path[obj]:
		return errCyclic
	case len(r.path) >= maxDepth:
		return errTooDeep
	}
	if err := r.spend(1); err != nil {
		return err
	}
	r.path[obj] = true
	return nil
}

func (r *reader) leave(obj *goja.Object) { delete(r.path, obj) }

// machineConfig reads a root configuration object. Keys are read with
// Object.Keys so that states and transitions keep their authoring order.
func (r *reader) machineConfig(obj *goja.Object) (machine.Config, error) {
	sc, err := r.stateConfig("", obj)
	if err != nil {
		return machine.Config{}, err
	}
	cfg := machine.Config{StateConfig: sc}
	if ctx := obj.Get("context"); isSet(ctx) {
		if _, lazy := goja.AssertFunction(ctx); !lazy {
			if cfg.Context, err = r.plain(ctx); err != nil {
				return machine.Config{}, fmt.Errorf("context: %w", err)
			}
		}
	}
	return cfg, nil
}

func (r *reader) stateConfig(key string, obj *goja.Object) (machine.StateConfig, error) {
	sc := machine.StateConfig{Key: key}
	if err := r.enter(obj); err != nil {
		return sc, err
	}
	defer r.leave(obj)

	sc.ID = str(obj.Get("id"))
	sc.Type = machine.NodeType(str(obj.Get("type")))
	sc.Initial = str(obj.Get("initial"))
	sc.History = str(obj.Get("history"))
	sc.Description = str(obj.Get("description"))
	if t := obj.Get("target"); isString(t) {
		sc.Target = t.String()
	}

	var err error
	if sc.Entry, err = r.actionNames(firstSet(obj.Get("entry"), obj.Get("onEntry"))); err != nil {
		return sc, err
	}
	if sc.Exit, err = r.actionNames(firstSet(obj.Get("exit"), obj.Get("onExit"))); err != nil {
		return sc, err
	}
	if sc.Tags, err = r.strs(obj.Get("tags")); err != nil {
		return sc, err
	}
	meta, err := r.plain(obj.Get("meta"))
	if err != nil {
		return sc, fmt.Errorf("meta: %w", err)
	}
	if m, ok := meta.(map[string]any); ok {
		sc.Meta = m
	}

	if states, ok := object(obj.Get("states")); ok {
		keys := states.Keys()
		if err := r.spend(len(keys)); err != nil {
			return sc, err
		}
		for _, k := range keys {
			child, ok := object(states.Get(k))
			if !ok {
				return sc, fmt.Errorf("state %q: config must be an object", k)
			}
			if r.path[child] {
				return sc, fmt.Errorf("state %q: cyclic state config", k)
			}
			csc, err := r.stateConfig(k, child)
			if err != nil {
				return sc, err
			}
			sc.States = append(sc.States, csc)
		}
	}

	if sc.On, err = r.keyedTransitions(obj.Get("on"), "event"); err != nil {
		return sc, err
	}
	if sc.After, err = r.keyedTransitions(obj.Get("after"), "delay"); err != nil {
		return sc, err
	}
	if sc.Always, err = r.transitions("", obj.Get("always")); err != nil {
		return sc, err
	}
	if sc.OnDone, err = r.transitions("", obj.Get("onDone")); err != nil {
		return sc, err
	}
	if sc.Invoke, err = r.invokes(obj.Get("invoke")); err != nil {
		return sc, err
	}
	return sc, nil
}

// keyedTransitions reads an {event: transitions} map, or the array form
// [{<field>: event, ...}] where field names the event key.
func (r *reader) keyedTransitions(v goja.Value, field string) ([]machine.TransitionConfig, error) {
	obj, ok := object(v)
	if !ok {
		return nil, nil
	}
	if err := r.enter(obj); err != nil {
		return nil, err
	}
	defer r.leave(obj)

	var out []machine.TransitionConfig
	if isArray(obj) {
		els, err := r.elements(obj)
		if err != nil {
			return nil, err
		}
		for _, el := range els {
			e, ok := object(el)
			if !ok {
				continue
			}
			ts, err := r.transitions(str(e.Get(field)), e)
			if err != nil {
				return nil, err
			}
			out = append(out, ts...)
		}
		return out, nil
	}

	keys := obj.Keys()
	if err := r.spend(len(keys)); err != nil {
		return nil, err
	}
	for _, k := range keys {
		ts, err := r.transitions(k, obj.Get(k))
		if err != nil {
			return nil, err
		}
		out = append(out, ts...)
	}
	return out, nil
}

// transitions normalizes the shorthand forms of a transition value: a target
// string, a transition object, or an array of either.
func (r *reader) transitions(event string, v goja.Value) ([]machine.TransitionConfig, error) {
	if !isSet(v) {
		return nil, nil
	}
	if isString(v) {
		return []machine.TransitionConfig{{Event: event, Targets: targets(v.String())}}, nil
	}
	obj, ok := object(v)
	if !ok {
		return nil, fmt.Errorf("event %q: invalid transition %s", event, v.String())
	}
	if err := r.enter(obj); err != nil {
		return nil, fmt.Errorf("event %q: %w", event, err)
	}
	defer r.leave(obj)

	if !isArray(obj) {
		tc, err := r.transition(event, obj)
		if err != nil {
			return nil, err
		}
		return []machine.TransitionConfig{tc}, nil
	}

	els, err := r.elements(obj)
	if err != nil {
		return nil, fmt.Errorf("event %q: %w", event, err)
	}
	var out []machine.TransitionConfig
	for _, el := range els {
		ts, err := r.transitions(event, el)
		if err != nil {
			return nil, err
		}
		out = append(out, ts...)
	}
	return out, nil
}

// transitionData holds the data-only fields of a transition object.
type transitionData struct {
	Target      []string `mapstructure:"target"`
	Internal    bool     `mapstructure:"internal"`
	Description string   `mapstructure:"description"`
}

var transitionFields = []string{"target", "internal", "description"}

func (r *reader) transition(event string, obj *goja.Object) (machine.TransitionConfig, error) {
	raw := make(map[string]any, len(transitionFields))
	for _, k := range transitionFields {
		v, err := r.plain(obj.Get(k))
		if err != nil {
			return machine.TransitionConfig{}, fmt.Errorf("event %q: %s: %w", event, k, err)
		}
		if v != nil {
			raw[k] = v
		}
	}

	var data transitionData
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &data,
	})
	if err != nil {
		return machine.TransitionConfig{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return machine.TransitionConfig{}, fmt.Errorf("event %q: %w", event, err)
	}

	tc := machine.TransitionConfig{
		Event:       event,
		Guard:       nameOf(firstSet(obj.Get("cond"), obj.Get("guard"))),
		Internal:    data.Internal,
		Description: data.Description,
	}
	if tc.Actions, err = r.actionNames(obj.Get("actions")); err != nil {
		return machine.TransitionConfig{}, fmt.Errorf("event %q: %w", event, err)
	}
	for _, t := range data.Target {
		tc.Targets = append(tc.Targets, targets(t)...)
	}
	return tc, nil
}

func (r *reader) invokes(v goja.Value) ([]machine.InvokeConfig, error) {
	list, err := r.list(v)
	if err != nil {
		return nil, fmt.Errorf("invoke: %w", err)
	}

	var out []machine.InvokeConfig
	for _, el := range list {
		inv, ok := object(el)
		if !ok {
			continue
		}
		if err := r.enter(inv); err != nil {
			return nil, fmt.Errorf("invoke: %w", err)
		}
		ic := machine.InvokeConfig{
			ID:  str(inv.Get("id")),
			Src: nameOf(inv.Get("src")),
		}
		ic.OnDone, err = r.transitions("", inv.Get("onDone"))
		if err == nil {
			ic.OnError, err = r.transitions("", inv.Get("onError"))
		}
		r.leave(inv)
		if err != nil {
			return nil, err
		}
		out = append(out, ic)
	}
	return out, nil
}

// list returns the elements of an array value, or the value itself.
func (r *reader) list(v goja.Value) ([]goja.Value, error) {
	if !isSet(v) {
		return nil, nil
	}
	if obj, ok := object(v); ok && isArray(obj) {
		return r.elements(obj)
	}
	return []goja.Value{v}, nil
}

// elements returns the items of an array. The length is checked before
// anything is read, since scripts can set it without storing elements.
func (r *reader) elements(arr *goja.Object) ([]goja.Value, error) {
	n := arr.Get("length").ToInteger()
	if n > maxElements {
		return nil, fmt.Errorf("array of %d elements exceeds the limit of %d", n, maxElements)
	}
	if err := r.spend(int(n)); err != nil {
		return nil, err
	}
	out := make([]goja.Value, 0, n)
	for i := range int(n) {
		out = append(out, arr.Get(strconv.Itoa(i)))
	}
	return out, nil
}

func targets(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

// nameOf names an action, guard or service reference: a string as is, an
// object by its type, a function by its name.
func nameOf(v goja.Value) string {
	if !isSet(v) {
		return ""
	}
	if isString(v) {
		return v.String()
	}
	obj, ok := object(v)
	if !ok {
		return v.String()
	}
	if _, fn := goja.AssertFunction(v); fn {
		if name := str(obj.Get("name")); name != "" {
			return name
		}
		return "anonymous"
	}
	return str(obj.Get("type"))
}

func (r *reader) actionNames(v goja.Value) ([]string, error) {
	list, err := r.list(v)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, el := range list {
		if name := nameOf(el); name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}

func (r *reader) strs(v goja.Value) ([]string, error) {
	list, err := r.list(v)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, el := range list {
		out = append(out, str(el))
	}
	return out, nil
}

// plain converts a script value to JSON-shaped Go data. Functions and
// wrapped Go values other than machines are dropped; a machine becomes its
// ID.
func (r *reader) plain(v goja.Value) (any, error) {
	if !isSet(v) {
		return nil, nil
	}
	if err := r.spend(1); err != nil {
		return nil, err
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		switch x := v.Export().(type) {
		case bool, string, int64, float64:
			return x, nil
		}
		return nil, nil
	}
	if _, fn := goja.AssertFunction(obj); fn {
		return nil, nil
	}
	switch t := obj.ExportType(); {
	case t == typeDefinition:
		return obj.Export().(*machine.Definition).ID, nil
	case isArray(obj):
	case t == nil || t.Kind() != reflect.Map:
		return nil, nil
	}

	if err := r.enter(obj); err != nil {
		return nil, err
	}
	defer r.leave(obj)

	if isArray(obj) {
		els, err := r.elements(obj)
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(els))
		for _, el := range els {
			p, err := r.plain(el)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	}

	keys := obj.Keys()
	if err := r.spend(len(keys)); err != nil {
		return nil, err
	}
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		p, err := r.plain(obj.Get(k))
		if err != nil {
			return nil, err
		}
		if p != nil {
			out[k] = p
		}
	}
	return out, nil
}

// ============================================================================
// Value helpers
// ============================================================================

func isSet(v goja.Value) bool {
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v)
}

// isString reports whether v is a string primitive. It inspects the export
// type only, so large objects are never copied.
func isString(v goja.Value) bool {
	return isSet(v) && v.ExportType() == typeString
}

func object(v goja.Value) (*goja.Object, bool) {
	if !isSet(v) {
		return nil, false
	}
	obj, ok := v.(*goja.Object)
	return obj, ok
}

func isArray(obj *goja.Object) bool {
	return obj.ClassName() == "Array"
}

func str(v goja.Value) string {
	if !isSet(v) {
		return ""
	}
	return v.String()
}

func firstSet(vs ...goja.Value) goja.Value {
	for _, v := range vs {
		if isSet(v) {
			return v
		}
	}
	return nil
}

var implementationKinds = []string{"actions", "guards", "services", "delays"}

// implementations reads the names of the implementations object passed as
// the factory's second argument. Only the keys are read.
func (r *reader) implementations(v goja.Value) (machine.Implementations, error) {
	obj, ok := object(v)
	if !ok {
		return machine.Implementations{}, nil
	}
	m := make(map[string]any, len(implementationKinds))
	for _, kind := range implementationKinds {
		group, ok := object(obj.Get(kind))
		if !ok {
			continue
		}
		keys := group.Keys()
		if err := r.spend(len(keys)); err != nil {
			return machine.Implementations{}, err
		}
		names := make(map[string]any, len(keys))
		for _, k := range keys {
			names[k] = true
		}
		m[kind] = names
	}
	return machine.ImplementationsFromMap(m), nil
}
