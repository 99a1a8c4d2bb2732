package render

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/matzehuels/stateviz/pkg/geometry"
	"github.com/matzehuels/stateviz/pkg/graph"
	"github.com/matzehuels/stateviz/pkg/layout"
)

// DefaultMargin is the space around the drawing, in points.
const DefaultMargin = 20.0

const svgCSS = `
    .state { stroke-width: 1.5; }
    .state-label { font-family: Helvetica, Arial, sans-serif; font-size: 12px; }
    .edge { fill: none; stroke-width: 1.5; }
    .edge-label { font-family: Helvetica, Arial, sans-serif; font-size: 11px; }
    [data-viz-active="true"] > .state { stroke-width: 3; }`

// Options configures SVG rendering.
type Options struct {
	// Margin around the drawing. Zero uses DefaultMargin.
	Margin float64

	// Active is the set of active state IDs.
	Active []string

	// Theme colours. Empty fields use the default theme.
	Theme Theme

	// Router draws edges without routing sections. Nil uses
	// geometry.StraightRouter.
	Router geometry.Router
}

// Result is a rendered document.
type Result struct {
	SVG []byte

	// Edges is the number of edges drawn.
	Edges int

	// Pending is the number of edges skipped because no path could be
	// computed for them yet.
	Pending int
}

type renderer struct {
	g      *graph.DirectedGraph
	l      *layout.Layout
	theme  Theme
	router geometry.Router
	active map[string]bool
	offset geometry.Point
}

// SVG renders g as laid out by l.
func SVG(g *graph.DirectedGraph, l *layout.Layout, opts Options) (*Result, error) {
	theme := opts.Theme
	if err := theme.Normalize(); err != nil {
		return nil, err
	}
	margin := opts.Margin
	if margin == 0 {
		margin = DefaultMargin
	}

	r := &renderer{
		g:      g,
		l:      l,
		theme:  theme,
		router: opts.Router,
		active: make(map[string]bool, len(opts.Active)),
	}
	if r.router == nil {
		r.router = geometry.StraightRouter{}
	}
	for _, id := range opts.Active {
		r.active[id] = true
	}

	bounds := r.bounds()
	r.offset = geometry.Point{X: margin - bounds.X, Y: margin - bounds.Y}
	width, height := bounds.Width+2*margin, bounds.Height+2*margin

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f" data-viz="machine" data-viz-id="%s">`+"\n",
		width, height, width, height, escapeXML(g.ID))
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", svgCSS)
	fmt.Fprintf(&buf, `  <rect x="0" y="0" width="%.1f" height="%.1f" fill="%s"/>`+"\n", width, height, theme.Background)

	buf.WriteString("  <g data-viz=\"states\">\n")
	for _, n := range g.Nodes {
		r.renderState(&buf, n)
	}
	buf.WriteString("  </g>\n")

	res := &Result{}
	buf.WriteString("  <g data-viz=\"edges\">\n")
	for _, e := range g.Edges {
		if r.renderEdge(&buf, e) {
			res.Edges++
		} else {
			res.Pending++
		}
	}
	buf.WriteString("  </g>\n")
	buf.WriteString("</svg>\n")

	res.SVG = buf.Bytes()
	return res, nil
}

// bounds returns the box enclosing every state and label.
func (r *renderer) bounds() geometry.Rect {
	var b geometry.Rect
	first := true
	add := func(rect geometry.Rect) {
		if first {
			b, first = rect, false
			return
		}
		b = b.Union(rect)
	}
	for _, n := range r.g.Nodes {
		if rect := r.l.Rect(n.ID); rect != nil {
			add(*rect)
		}
	}
	for _, e := range r.g.Edges {
		if rect := r.l.LabelRect(e.ID); rect != nil {
			add(*rect)
		}
	}
	return b
}

func (r *renderer) renderState(buf *bytes.Buffer, n *graph.Node) {
	rect := r.l.Rect(n.ID)
	if rect == nil {
		return
	}
	box := rect.Translate(r.offset)
	active := r.active[n.ID]
	stroke := r.theme.Stroke
	if active {
		stroke = r.theme.Active
	}

	fmt.Fprintf(buf, `    <g data-viz="stateNode" data-viz-node="%s" data-viz-type="%s" data-viz-active="%t">`+"\n",
		escapeXML(n.ID), n.Type, active)
	fmt.Fprintf(buf, `      <rect class="state" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="6" fill="%s" stroke="%s"/>`+"\n",
		box.X, box.Y, box.Width, box.Height, r.theme.State, stroke)

	if n.IsCompound() {
		fmt.Fprintf(buf, `      <text class="state-label" x="%.1f" y="%.1f" fill="%s" font-weight="bold">%s</text>`+"\n",
			box.X+8, box.Y+16, r.theme.Text, escapeXML(n.Key))
	} else {
		c := box.Center()
		fmt.Fprintf(buf, `      <text class="state-label" x="%.1f" y="%.1f" fill="%s" text-anchor="middle" dominant-baseline="central">%s</text>`+"\n",
			c.X, c.Y, r.theme.Text, escapeXML(n.Key))
	}
	buf.WriteString("    </g>\n")
}

// renderEdge draws one edge and reports whether a path was available.
func (r *renderer) renderEdge(buf *bytes.Buffer, e *graph.Edge) bool {
	source, target := r.l.Rect(e.Source), r.l.Rect(e.Target)
	label := r.l.LabelRect(e.ID)

	path, ok := geometry.ComputePath(e.Sections, source, label, target, r.router)
	if !ok {
		return false
	}
	path = geometry.Translate(path, r.offset)

	active := r.active[e.Source]
	color := r.theme.Edge
	if active {
		color = r.theme.Active
	}

	var sourceOrder int
	if n, ok := r.g.Node(e.Source); ok {
		sourceOrder = n.Order
	}
	marker := "marker-" + geometry.MarkerID(sourceOrder, e.Order)

	fmt.Fprintf(buf, `    <g data-viz="edgeGroup" data-viz-edge="%s" data-viz-active="%t">`+"\n", escapeXML(e.ID), active)
	fmt.Fprintf(buf, `      <defs><marker id="%s" viewBox="0 0 10 10" refX="5" refY="5" markerWidth="8" markerHeight="8" orient="auto-start-reverse">`+
		`<path d="M0,0 L10,5 L0,10 Z" fill="%s"/></marker></defs>`+"\n", marker, color)
	fmt.Fprintf(buf, `      <path class="edge" d="%s" stroke="%s" marker-end="url(#%s)"/>`+"\n", path.D(), color, marker)

	box := label.Translate(r.offset)
	c := box.Center()
	fmt.Fprintf(buf, `      <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="3" fill="%s" fill-opacity="0.85"/>`+"\n",
		box.X, box.Y, box.Width, box.Height, r.theme.Background)
	fmt.Fprintf(buf, `      <text class="edge-label" x="%.1f" y="%.1f" fill="%s" text-anchor="middle" dominant-baseline="central">%s</text>`+"\n",
		c.X, c.Y, r.theme.Text, escapeXML(e.Label))
	buf.WriteString("    </g>\n")
	return true
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

