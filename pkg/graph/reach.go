package graph

import (
	dgraph "github.com/dominikbraun/graph"

	"github.com/matzehuels/stateviz/pkg/machine"
)

// Unreachable returns the IDs of states that can never become active, in
// document order.
//
// A state is reachable when it can be entered from the root. Entering a
// state enters its ancestors; entering a compound state enters its initial
// child and entering a parallel state enters every region. While a state is
// active, the transitions of it and its ancestors may fire.
func Unreachable(g *DirectedGraph) []string {
	if len(g.Nodes) == 0 {
		return nil
	}

	entry := dgraph.New(dgraph.StringHash, dgraph.Directed())
	for _, n := range g.Nodes {
		_ = entry.AddVertex(n.ID)
	}
	link := func(from, to string) {
		// Duplicate edges are expected and harmless.
		_ = entry.AddEdge(from, to)
	}

	for _, n := range g.Nodes {
		if n.Parent != "" {
			link(n.ID, n.Parent)
		}
		switch {
		case n.Type == machine.Parallel:
			for _, c := range n.Children {
				link(n.ID, c)
			}
		case n.Initial != "":
			link(n.ID, n.Initial)
		}
	}
	for _, e := range g.Edges {
		if !e.IsSelf() {
			link(e.Source, e.Target)
		}
	}

	seen := make(map[string]bool, len(g.Nodes))
	_ = dgraph.BFS(entry, g.Root, func(id string) bool {
		seen[id] = true
		return false
	})

	var out []string
	for _, n := range g.Nodes {
		if !seen[n.ID] {
			out = append(out, n.ID)
		}
	}
	return out
}
