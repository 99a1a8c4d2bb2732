// Package render draws a laid-out transition graph as SVG.
//
// # Overview
//
// [SVG] takes a *graph.DirectedGraph and the *layout.Layout computed for it
// and produces a standalone SVG document:
//
//   - each state is a rounded box; compound states are drawn first so their
//     children sit on top
//   - each edge is a path computed by geometry.ComputePath from its routing
//     section, or from the state and label boxes when it has none
//   - each edge gets its own arrow marker, identified by
//     geometry.MarkerID(source order, edge order)
//
// Edges whose path cannot be computed yet (a box is missing) are skipped and
// counted in [Result.Pending].
//
// # Active States
//
// Options.Active lists the IDs of the currently active states. A state in
// the set, and every edge leaving it, is marked data-viz-active="true" and
// drawn in the theme's active colour. The flag never changes geometry.
//
// # Data Attributes
//
// Elements carry data-viz attributes so that hosts can script the output:
//
//	<g data-viz="stateNode" data-viz-node="light.green" data-viz-active="true">
//	<g data-viz="edgeGroup" data-viz-edge="light.green:0:0" data-viz-active="true">
package render
