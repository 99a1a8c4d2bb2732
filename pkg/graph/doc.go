// Package graph provides the directed transition graph of a state machine
// and its serialization format.
//
// A [DirectedGraph] is the shape the layout engine and renderer work on. It
// is derived from a *machine.Definition by [FromMachine]:
//
//   - one [Node] per state, in document (preorder) order
//   - one [Edge] per (transition, target) pair, in render order
//
// # Identity and Order
//
// Node IDs are the state IDs of the definition. Edge IDs have the form
// "<sourceID>:<transitionIndex>:<targetIndex>", where the transition index
// counts the transitions of the source state. A transition without targets
// becomes a self edge with target index 0.
//
// Every node and edge carries an Order. Node order is the preorder index of
// the state; edge order is the index of the edge in [DirectedGraph.Edges].
// Renderers derive marker identifiers from the pair (source order, edge
// order), so two edges leaving the same state never share a marker.
//
// # Routing
//
// Edges may carry routing sections supplied by a layout engine. Only the
// first section is used when drawing.
//
// # Serialization
//
// Graphs use a node-link JSON format:
//
//	{
//	  "id": "light",
//	  "root": "light",
//	  "nodes": [{"id": "light", "key": "light", "type": "compound", ...}],
//	  "edges": [{"id": "light.green:0:0", "source": "light.green", "target": "light.yellow", ...}]
//	}
//
// Use [MarshalGraph]/[UnmarshalGraph] and [WriteGraph]/[ReadGraph].
package graph
