package graph

import (
	"fmt"
	"strings"

	"github.com/matzehuels/stateviz/pkg/geometry"
	"github.com/matzehuels/stateviz/pkg/machine"
)

// =============================================================================
// DirectedGraph
// =============================================================================

// DirectedGraph is the transition graph of one machine.
type DirectedGraph struct {
	ID    string  `json:"id"`
	Root  string  `json:"root"`
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`

	byID map[string]*Node
}

// Node is one state of the machine.
type Node struct {
	ID          string           `json:"id"`
	Key         string           `json:"key"`
	Parent      string           `json:"parent,omitempty"`
	Type        machine.NodeType `json:"type"`
	Order       int              `json:"order"`
	Depth       int              `json:"depth"`
	Initial     string           `json:"initial,omitempty"` // ID of the initial child
	Children    []string         `json:"children,omitempty"`
	Entry       []string         `json:"entry,omitempty"`
	Exit        []string         `json:"exit,omitempty"`
	Invoke      []string         `json:"invoke,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	Description string           `json:"description,omitempty"`
}

// IsCompound reports whether the node has child states.
func (n *Node) IsCompound() bool { return len(n.Children) > 0 }

// Edge is one (transition, target) pair.
type Edge struct {
	ID       string                    `json:"id"`
	Source   string                    `json:"source"`
	Target   string                    `json:"target"`
	Event    string                    `json:"event"`
	Label    string                    `json:"label"`
	Guard    string                    `json:"guard,omitempty"`
	Actions  []string                  `json:"actions,omitempty"`
	Internal bool                      `json:"internal,omitempty"`
	Order    int                       `json:"order"`
	Sections []geometry.RoutingSection `json:"sections,omitempty"`
}

// IsSelf reports whether the edge starts and ends on the same state.
func (e *Edge) IsSelf() bool { return e.Source == e.Target }

// Node returns the node with the given ID.
func (g *DirectedGraph) Node(id string) (*Node, bool) {
	if g.byID == nil {
		g.index()
	}
	n, ok := g.byID[id]
	return n, ok
}

// Children returns the child nodes of id in document order.
func (g *DirectedGraph) Children(id string) []*Node {
	n, ok := g.Node(id)
	if !ok {
		return nil
	}
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if child, ok := g.Node(c); ok {
			out = append(out, child)
		}
	}
	return out
}

// Ancestors returns the IDs of the ancestors of id, nearest first.
func (g *DirectedGraph) Ancestors(id string) []string {
	var out []string
	for n, ok := g.Node(id); ok && n.Parent != ""; n, ok = g.Node(n.Parent) {
		out = append(out, n.Parent)
	}
	return out
}

// OutEdges returns the edges leaving id in render order.
func (g *DirectedGraph) OutEdges(id string) []*Edge {
	var out []*Edge
	for _, e := range g.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks that every edge and parent reference names a node.
func (g *DirectedGraph) Validate() error {
	g.index()
	if _, ok := g.byID[g.Root]; !ok && len(g.Nodes) > 0 {
		return fmt.Errorf("root %q is not a node", g.Root)
	}
	for _, n := range g.Nodes {
		if n.Parent != "" {
			if _, ok := g.byID[n.Parent]; !ok {
				return fmt.Errorf("node %q: unknown parent %q", n.ID, n.Parent)
			}
		}
	}
	for _, e := range g.Edges {
		if _, ok := g.byID[e.Source]; !ok {
			return fmt.Errorf("edge %q: unknown source %q", e.ID, e.Source)
		}
		if _, ok := g.byID[e.Target]; !ok {
			return fmt.Errorf("edge %q: unknown target %q", e.ID, e.Target)
		}
	}
	return nil
}

func (g *DirectedGraph) index() {
	g.byID = make(map[string]*Node, len(g.Nodes))
	for _, n := range g.Nodes {
		g.byID[n.ID] = n
	}
}

// =============================================================================
// Machine → Graph Conversion
// =============================================================================

// FromMachine builds the transition graph of def.
func FromMachine(def *machine.Definition) *DirectedGraph {
	g := &DirectedGraph{
		ID:   def.ID,
		Root: def.Root.ID,
	}

	for _, s := range def.Nodes() {
		n := &Node{
			ID:          s.ID,
			Key:         s.Key,
			Type:        s.Type,
			Order:       s.Order,
			Depth:       s.Depth(),
			Entry:       s.Entry,
			Exit:        s.Exit,
			Tags:        s.Tags,
			Description: s.Description,
		}
		if s.Parent != nil {
			n.Parent = s.Parent.ID
		}
		if c, ok := s.InitialChild(); ok {
			n.Initial = c.ID
		}
		for _, c := range s.States {
			n.Children = append(n.Children, c.ID)
		}
		for _, inv := range s.Invoke {
			n.Invoke = append(n.Invoke, inv.Src)
		}
		g.Nodes = append(g.Nodes, n)

		for ti, t := range s.Transitions {
			targets := t.Targets
			if len(targets) == 0 {
				targets = []string{s.ID}
			}
			for ei, target := range targets {
				g.Edges = append(g.Edges, &Edge{
					ID:       fmt.Sprintf("%s:%d:%d", s.ID, ti, ei),
					Source:   s.ID,
					Target:   target,
					Event:    t.Event,
					Label:    EdgeLabel(t.Event, t.Guard),
					Guard:    t.Guard,
					Actions:  t.Actions,
					Internal: t.Internal,
					Order:    len(g.Edges),
				})
			}
		}
	}
	g.index()
	return g
}

// EdgeLabel returns the display label of a transition event. Synthetic
// events get short names; a guard is appended in brackets.
func EdgeLabel(event, guard string) string {
	label := event
	switch {
	case event == "":
		label = "always"
	case strings.HasPrefix(event, "xstate.after("):
		delay := strings.TrimPrefix(event, "xstate.after(")
		if i := strings.Index(delay, ")"); i >= 0 {
			delay = delay[:i]
		}
		label = "after " + delay
	case strings.HasPrefix(event, "done.state."):
		label = "onDone"
	case strings.HasPrefix(event, "done.invoke."):
		label = "done: " + strings.TrimPrefix(event, "done.invoke.")
	case strings.HasPrefix(event, "error.platform."):
		label = "error: " + strings.TrimPrefix(event, "error.platform.")
	}
	if guard != "" {
		label += " [" + guard + "]"
	}
	return label
}
