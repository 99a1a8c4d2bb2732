package machine

// DefaultID is the machine ID used when a configuration names none.
const DefaultID = "(machine)"

// Definition is a built state machine.
//
// Definitions are immutable once built; WithContext and WithConfig return
// modified copies that share the node tree.
type Definition struct {
	ID              string          `json:"id"`
	Initial         string          `json:"initial,omitempty"`
	Context         any             `json:"context,omitempty"`
	Root            *StateNode      `json:"root"`
	Implementations Implementations `json:"implementations"`

	nodes []*StateNode
	byID  map[string]*StateNode
}

// StateNode is one state in a machine's hierarchy.
type StateNode struct {
	Key         string         `json:"key"`
	ID          string         `json:"id"`
	Path        []string       `json:"path"`
	Type        NodeType       `json:"type"`
	Order       int            `json:"order"`
	Initial     string         `json:"initial,omitempty"`
	History     string         `json:"history,omitempty"`
	Entry       []string       `json:"entry,omitempty"`
	Exit        []string       `json:"exit,omitempty"`
	Invoke      []Invoke       `json:"invoke,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Description string         `json:"description,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
	States      []*StateNode   `json:"states,omitempty"`
	Transitions []*Transition  `json:"transitions,omitempty"`

	Parent *StateNode `json:"-"`
}

// Invoke describes a service invoked by a state.
type Invoke struct {
	ID  string `json:"id"`
	Src string `json:"src"`
}

// Transition is a resolved transition. Source and Targets hold state IDs.
type Transition struct {
	Event       string   `json:"event"`
	Source      string   `json:"source"`
	Targets     []string `json:"targets,omitempty"`
	Guard       string   `json:"guard,omitempty"`
	Actions     []string `json:"actions,omitempty"`
	Internal    bool     `json:"internal,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Node returns the state node with the given ID.
func (d *Definition) Node(id string) (*StateNode, bool) {
	n, ok := d.byID[id]
	return n, ok
}

// Nodes returns all state nodes in document order, root first.
func (d *Definition) Nodes() []*StateNode {
	out := make([]*StateNode, len(d.nodes))
	copy(out, d.nodes)
	return out
}

// Transitions returns every transition in document order of its source.
func (d *Definition) Transitions() []*Transition {
	var out []*Transition
	for _, n := range d.nodes {
		out = append(out, n.Transitions...)
	}
	return out
}

// WithContext returns a copy of d with a different initial context.
func (d *Definition) WithContext(ctx any) *Definition {
	c := *d
	c.Context = ctx
	return &c
}

// WithConfig returns a copy of d with additional implementations. impl is
// shaped like the second argument of the machine factory.
func (d *Definition) WithConfig(impl map[string]any) *Definition {
	c := *d
	c.Implementations = d.Implementations.Merge(ImplementationsFromMap(impl))
	return &c
}

// IsCompound reports whether n has child states.
func (n *StateNode) IsCompound() bool { return len(n.States) > 0 }

// Depth returns the number of ancestors of n.
func (n *StateNode) Depth() int { return len(n.Path) }

// Child returns the direct child with the given key.
func (n *StateNode) Child(key string) (*StateNode, bool) {
	for _, c := range n.States {
		if c.Key == key {
			return c, true
		}
	}
	return nil, false
}

// InitialChild returns the child entered by default, if any.
func (n *StateNode) InitialChild() (*StateNode, bool) {
	if n.Initial == "" {
		return nil, false
	}
	return n.Child(n.Initial)
}
