package geometry

// StraightRouter routes an edge as straight segments from the source box,
// through its label box, into the target box.
//
// The path leaves the source on the side facing the label, crosses the label
// from its entry side to its exit side, and ends on the target border facing
// the label, retracted like routed edges. A self-transition goes out to its
// label and returns to the same side of the state.
type StraightRouter struct{}

// Route implements Router.
func (StraightRouter) Route(source, label, target Rect) SvgPath {
	lc := label.Center()
	if source.Contains(lc) || target.Contains(lc) {
		return nil
	}

	start := source.Boundary(lc)
	end := target.Boundary(lc)

	// Enter the label on the side facing the source, leave it on the side
	// facing the target.
	entry := label.Boundary(start)
	exit := label.Boundary(end)

	path := SvgPath{
		{Kind: MoveTo, Point: start},
		{Kind: LineTo, Point: entry},
	}
	if exit != entry {
		path = append(path, PathCommand{Kind: LineTo, Point: exit})
	}

	if exit == end {
		return nil
	}
	path = append(path, PathCommand{Kind: LineTo, Point: Retract(exit, end)})
	return path
}
