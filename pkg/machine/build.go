package machine

import (
	"fmt"
	"strings"

	"github.com/matzehuels/stateviz/pkg/errors"
)

// New builds a Definition from cfg.
//
// It returns an error with code INVALID_MACHINE when two nodes share an ID,
// when a compound state's initial key names no child, or when a transition
// target cannot be resolved.
func New(cfg Config) (*Definition, error) {
	id := cfg.ID
	if id == "" {
		id = cfg.Key
	}
	if id == "" {
		id = DefaultID
	}

	d := &Definition{
		ID:              id,
		Initial:         cfg.Initial,
		Context:         cfg.Context,
		Implementations: cfg.Implementations,
		byID:            make(map[string]*StateNode),
	}

	b := &builder{def: d}
	root, err := b.node(cfg.StateConfig, nil, id)
	if err != nil {
		return nil, err
	}
	d.Root = root

	for i, n := range d.nodes {
		if err := b.transitions(n, b.configs[i]); err != nil {
			return nil, err
		}
	}
	return d, nil
}

type builder struct {
	def     *Definition
	configs []StateConfig // parallel to def.nodes
}

func (b *builder) node(sc StateConfig, parent *StateNode, key string) (*StateNode, error) {
	n := &StateNode{
		Key:         key,
		Type:        sc.Type,
		Initial:     sc.Initial,
		History:     sc.History,
		Entry:       sc.Entry,
		Exit:        sc.Exit,
		Tags:        sc.Tags,
		Description: sc.Description,
		Meta:        sc.Meta,
		Parent:      parent,
		Order:       len(b.def.nodes),
	}

	switch {
	case sc.ID != "":
		n.ID = sc.ID
	case parent == nil:
		n.ID = b.def.ID
	default:
		n.ID = parent.ID + "." + key
	}
	if parent != nil {
		n.Path = append(append([]string{}, parent.Path...), key)
	} else {
		n.Path = []string{}
	}

	if _, dup := b.def.byID[n.ID]; dup {
		return nil, errors.New(errors.ErrCodeInvalidMachine, "duplicate state id %q", n.ID)
	}
	b.def.byID[n.ID] = n
	b.def.nodes = append(b.def.nodes, n)
	b.configs = append(b.configs, sc)

	for i, inv := range sc.Invoke {
		n.Invoke = append(n.Invoke, Invoke{ID: invokeID(n, inv, i), Src: inv.Src})
	}

	for _, child := range sc.States {
		c, err := b.node(child, n, child.Key)
		if err != nil {
			return nil, err
		}
		n.States = append(n.States, c)
	}

	if n.Type == "" {
		if len(n.States) > 0 {
			n.Type = Compound
		} else {
			n.Type = Atomic
		}
	}
	if n.Type == History && n.History == "" {
		n.History = "shallow"
	}

	if n.Type == Compound && n.Initial != "" {
		if _, ok := n.Child(n.Initial); !ok {
			return nil, errors.New(errors.ErrCodeInvalidMachine,
				"initial state %q not found on %q", n.Initial, n.ID)
		}
	}
	return n, nil
}

func invokeID(n *StateNode, inv InvokeConfig, i int) string {
	if inv.ID != "" {
		return inv.ID
	}
	return fmt.Sprintf("%s:invocation[%d]", n.ID, i)
}

func (b *builder) transitions(n *StateNode, sc StateConfig) error {
	add := func(event string, tcs []TransitionConfig) error {
		for _, tc := range tcs {
			t, err := b.transition(n, event, tc)
			if err != nil {
				return err
			}
			n.Transitions = append(n.Transitions, t)
		}
		return nil
	}

	for _, tc := range sc.On {
		if err := add(tc.Event, []TransitionConfig{tc}); err != nil {
			return err
		}
	}
	if err := add("", sc.Always); err != nil {
		return err
	}
	for _, tc := range sc.After {
		if err := add(AfterEvent(tc.Event, n.ID), []TransitionConfig{tc}); err != nil {
			return err
		}
	}
	if err := add(DoneStateEvent(n.ID), sc.OnDone); err != nil {
		return err
	}
	for i, inv := range sc.Invoke {
		id := n.Invoke[i].ID
		if err := add("done.invoke."+id, inv.OnDone); err != nil {
			return err
		}
		if err := add("error.platform."+id, inv.OnError); err != nil {
			return err
		}
	}

	if n.Type == History && sc.Target != "" {
		t, err := b.transition(n, "", TransitionConfig{Targets: []string{sc.Target}})
		if err != nil {
			return err
		}
		n.Transitions = append(n.Transitions, t)
	}
	return nil
}

func (b *builder) transition(n *StateNode, event string, tc TransitionConfig) (*Transition, error) {
	t := &Transition{
		Event:       event,
		Source:      n.ID,
		Guard:       tc.Guard,
		Actions:     tc.Actions,
		Internal:    tc.Internal,
		Description: tc.Description,
	}

	internal := len(tc.Targets) > 0
	for _, target := range tc.Targets {
		resolved, err := b.resolve(n, target)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidMachine, err,
				"invalid transition on %q for event %q", n.ID, displayEvent(event))
		}
		t.Targets = append(t.Targets, resolved.ID)
		if !strings.HasPrefix(target, ".") {
			internal = false
		}
	}
	if internal {
		t.Internal = true
	}
	return t, nil
}

// resolve finds the node a target string refers to, relative to source.
func (b *builder) resolve(source *StateNode, target string) (*StateNode, error) {
	switch {
	case strings.HasPrefix(target, "#"):
		return b.resolveID(strings.TrimPrefix(target, "#"))
	case strings.HasPrefix(target, "."):
		return resolvePath(source, strings.Split(strings.TrimPrefix(target, "."), "."))
	default:
		base := source.Parent
		if base == nil {
			base = source
		}
		return resolvePath(base, strings.Split(target, "."))
	}
}

// resolveID looks up "#id" and "#id.child.path" references. IDs may contain
// dots themselves, so the longest matching ID prefix wins.
func (b *builder) resolveID(ref string) (*StateNode, error) {
	if n, ok := b.def.byID[ref]; ok {
		return n, nil
	}
	parts := strings.Split(ref, ".")
	for i := len(parts) - 1; i > 0; i-- {
		if n, ok := b.def.byID[strings.Join(parts[:i], ".")]; ok {
			return resolvePath(n, parts[i:])
		}
	}
	return nil, fmt.Errorf("no state with id %q", ref)
}

func resolvePath(base *StateNode, keys []string) (*StateNode, error) {
	n := base
	for _, k := range keys {
		c, ok := n.Child(k)
		if !ok {
			return nil, fmt.Errorf("child state %q does not exist on %q", k, n.ID)
		}
		n = c
	}
	return n, nil
}

// AfterEvent returns the event name of a delayed transition.
func AfterEvent(delay, id string) string {
	return fmt.Sprintf("xstate.after(%s)#%s", delay, id)
}

// DoneStateEvent returns the event raised when a compound state completes.
func DoneStateEvent(id string) string {
	return "done.state." + id
}

func displayEvent(event string) string {
	if event == "" {
		return "always"
	}
	return event
}
