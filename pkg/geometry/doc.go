// Package geometry computes drawable paths for state-machine edges.
//
// # Overview
//
// Edges are drawn as SVG paths made of move/line commands. A path is derived
// either from routing data produced by a layout engine ([RoutingSection]) or,
// when no routing is available, from the measured boxes of the edge's source
// node, label and target node via a [Router].
//
// # Computing Paths
//
//	path, ok := geometry.ComputePath(edge.Sections, src, label, dst, geometry.StraightRouter{})
//	if !ok {
//	    // measurements not available yet; try again after the next layout pass
//	}
//	d := path.D() // "M0,0 L5,0"
//
// A missing measurement is not an error. [ComputePath] reports it through its
// boolean result, and callers retry once new measurements arrive.
//
// # Retraction
//
// The final point of a routed path is pulled back by [RetractDistance] along
// the direction of the last segment, so the stroke stops short of the arrow
// marker placed at the true end point.
//
// # Concurrency
//
// All functions in this package are pure and safe for concurrent use.
package geometry
