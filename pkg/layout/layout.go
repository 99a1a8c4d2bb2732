package layout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/stateviz/pkg/errors"
	"github.com/matzehuels/stateviz/pkg/geometry"
	"github.com/matzehuels/stateviz/pkg/graph"
)

// plainFormat is the Graphviz output format parsed by Compute.
const plainFormat graphviz.Format = "plain"

// Layout holds the measured geometry of a graph, in points with the origin
// at the top left.
type Layout struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	RankDir string  `json:"rankdir"`
	Routing bool    `json:"routing"`

	// Nodes maps state IDs to their boxes. Compound states cover their
	// descendants.
	Nodes map[string]geometry.Rect `json:"nodes"`

	// Labels maps edge IDs to the boxes of their labels.
	Labels map[string]geometry.Rect `json:"labels"`

	// Sections maps edge IDs to their routes.
	Sections map[string][]geometry.RoutingSection `json:"sections"`
}

// Compute lays out g with Graphviz.
func Compute(ctx context.Context, g *graph.DirectedGraph, opts Options) (*Layout, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	plain, err := renderPlain(ctx, ToDOT(g, opts))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayout, err, "layout %q", g.ID)
	}
	l, err := FromPlain(plain, g, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayout, err, "read layout of %q", g.ID)
	}
	return l, nil
}

func renderPlain(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	pg, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer pg.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, pg, plainFormat, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// FromPlain builds a layout for g from Graphviz plain output.
func FromPlain(data []byte, g *graph.DirectedGraph, opts Options) (*Layout, error) {
	pg, err := parsePlain(data)
	if err != nil {
		return nil, err
	}

	height := pg.Height * pointsPerInch
	toPoint := func(p geometry.Point) geometry.Point {
		return geometry.Point{X: p.X * pointsPerInch, Y: height - p.Y*pointsPerInch}
	}

	l := &Layout{
		Width:    pg.Width * pointsPerInch,
		Height:   height,
		RankDir:  opts.RankDir,
		Routing:  opts.Routing,
		Nodes:    make(map[string]geometry.Rect, len(g.Nodes)),
		Labels:   make(map[string]geometry.Rect, len(g.Edges)),
		Sections: make(map[string][]geometry.RoutingSection, len(g.Edges)),
	}

	for _, n := range g.Nodes {
		pn, ok := pg.Nodes[n.ID]
		if !ok {
			return nil, fmt.Errorf("state %q missing from layout", n.ID)
		}
		c := toPoint(geometry.Point{X: pn.X, Y: pn.Y})
		w, h := pn.Width*pointsPerInch, pn.Height*pointsPerInch
		l.Nodes[n.ID] = geometry.Rect{X: c.X - w/2, Y: c.Y - h/2, Width: w, Height: h}
	}
	if root, ok := g.Node(g.Root); ok {
		l.coverClusters(g, root)
	}

	// Plain output lists edges without IDs, in creation order per tail.
	// Graph edges are matched to them by endpoints, in the same order.
	queues := make(map[[2]string][]plainEdge)
	for _, e := range pg.Edges {
		k := [2]string{e.Tail, e.Head}
		queues[k] = append(queues[k], e)
	}
	for _, e := range g.Edges {
		k := [2]string{e.Source, e.Target}
		q := queues[k]
		if len(q) == 0 {
			return nil, fmt.Errorf("edge %q missing from layout", e.ID)
		}
		pe := q[0]
		queues[k] = q[1:]

		pts := make([]geometry.Point, len(pe.Points))
		for i, p := range pe.Points {
			pts[i] = toPoint(p)
		}
		l.Sections[e.ID] = []geometry.RoutingSection{section(pts)}

		w, h := LabelSize(e.Label)
		var c geometry.Point
		if pe.LabelPos != nil {
			c = toPoint(*pe.LabelPos)
		} else {
			c = pts[len(pts)/2]
		}
		l.Labels[e.ID] = geometry.Rect{X: c.X - w/2, Y: c.Y - h/2, Width: w, Height: h}
	}
	return l, nil
}

// section converts spline control points into a routing section. Polyline
// splines are chains of cubic segments whose inner control points lie on the
// segment, so only every third point is a corner.
func section(pts []geometry.Point) geometry.RoutingSection {
	s := geometry.RoutingSection{Start: pts[0], End: pts[len(pts)-1]}
	for i := 3; i < len(pts)-1; i += 3 {
		s.Bends = append(s.Bends, pts[i])
	}
	return s
}

// coverClusters grows each compound state's rect to enclose its header and
// all descendants.
func (l *Layout) coverClusters(g *graph.DirectedGraph, n *graph.Node) geometry.Rect {
	r := l.Nodes[n.ID]
	if !n.IsCompound() {
		return r
	}
	for _, c := range g.Children(n.ID) {
		r = r.Union(l.coverClusters(g, c))
	}
	r = r.Inset(-ClusterPadding)
	l.Nodes[n.ID] = r
	return r
}

// Apply attaches the routing sections to g's edges. Without routing, any
// existing sections are cleared so that renderers use their fallback.
func (l *Layout) Apply(g *graph.DirectedGraph) {
	for _, e := range g.Edges {
		if !l.Routing {
			e.Sections = nil
			continue
		}
		e.Sections = l.Sections[e.ID]
	}
}

// Rect returns the box of a state, or nil when it has none.
func (l *Layout) Rect(id string) *geometry.Rect {
	r, ok := l.Nodes[id]
	if !ok {
		return nil
	}
	return &r
}

// LabelRect returns the label box of an edge, or nil when it has none.
func (l *Layout) LabelRect(edgeID string) *geometry.Rect {
	r, ok := l.Labels[edgeID]
	if !ok {
		return nil
	}
	return &r
}

// Marshal encodes the layout as JSON.
func (l *Layout) Marshal() ([]byte, error) {
	return json.Marshal(l)
}

// Unmarshal decodes a JSON layout.
func Unmarshal(data []byte) (*Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	return &l, nil
}
