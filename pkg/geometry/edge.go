package geometry

import "fmt"

// RetractDistance is how far the final point of a routed edge is pulled back
// from the true end point.
const RetractDistance = 5

// RoutingSection is routing produced by a layout engine for one edge.
type RoutingSection struct {
	Start Point   `json:"start"`
	End   Point   `json:"end"`
	Bends []Point `json:"bends,omitempty"`
}

// Router derives a path from measured boxes alone. It is consulted when an
// edge has no routing section. Route returns nil when no sensible path exists.
type Router interface {
	Route(source, label, target Rect) SvgPath
}

// RouterFunc adapts a function to the Router interface.
type RouterFunc func(source, label, target Rect) SvgPath

// Route calls f.
func (f RouterFunc) Route(source, label, target Rect) SvgPath { return f(source, label, target) }

// ComputePath returns the path for one edge.
//
// All three rects must be present; otherwise no path is produced. When
// sections is non-empty only the first section is used. Without sections the
// fallback router decides. The second result is false whenever no path could
// be produced, and the returned path is then nil.
func ComputePath(sections []RoutingSection, source, label, target *Rect, fallback Router) (SvgPath, bool) {
	if source == nil || label == nil || target == nil {
		return nil, false
	}

	if len(sections) > 0 {
		return routedPath(sections[0]), true
	}

	if fallback == nil {
		return nil, false
	}
	path := fallback.Route(*source, *label, *target)
	if len(path) == 0 {
		return nil, false
	}
	return path, true
}

func routedPath(s RoutingSection) SvgPath {
	path := make(SvgPath, 0, len(s.Bends)+2)
	path = append(path, PathCommand{Kind: MoveTo, Point: s.Start})
	for _, b := range s.Bends {
		path = append(path, PathCommand{Kind: LineTo, Point: b})
	}

	last, _ := path.Last()
	path = append(path, PathCommand{Kind: LineTo, Point: Retract(last, s.End)})
	return path
}

// Retract pulls end back towards from by RetractDistance along each axis the
// segment moves in.
func Retract(from, end Point) Point {
	dx := sign(end.X - from.X)
	dy := sign(end.Y - from.Y)
	return Point{
		X: end.X - RetractDistance*dx,
		Y: end.Y - RetractDistance*dy,
	}
}

// MarkerID derives the arrow-marker identifier for an edge from the stable
// order index of its source node and the edge's own render order. Edges that
// share a source never collide.
func MarkerID(sourceOrder, edgeOrder int) string {
	return fmt.Sprintf("%d-%d", sourceOrder, edgeOrder)
}
