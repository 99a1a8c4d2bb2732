// Package layout positions the states and routes the edges of a transition
// graph using Graphviz.
//
// # Overview
//
// [ToDOT] converts a *graph.DirectedGraph into DOT source:
//
//   - atomic states become fixed-size boxes sized from their labels
//   - compound states become cluster_ subgraphs with a header node that
//     carries the state's name and receives its edges
//   - edges are labelled with their event and drawn as polylines without
//     arrowheads; the renderer draws its own markers
//
// [Compute] runs Graphviz in-process (github.com/goccy/go-graphviz), renders
// the "plain" output format and parses it into a [Layout]: one rect per
// state, one label rect per edge and one routing section per edge. Plain
// output uses inches with the origin at the bottom left; layouts use points
// with the origin at the top left.
//
// # Usage
//
//	l, err := layout.Compute(ctx, g, layout.Options{RankDir: "LR", Routing: true})
//	l.Apply(g) // attach routing sections to g's edges
//
// Layouts are plain data and serialize to JSON, so they can be cached.
package layout
