package layout

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/stateviz/pkg/graph"
)

// Size estimates, in points. Graphviz needs node sizes up front and the
// renderer draws text itself, so both sides use the same estimate.
const (
	CharWidth       = 7.0
	NodeHeight      = 36.0
	NodeMinWidth    = 72.0
	NodePadding     = 24.0
	LabelHeight     = 16.0
	LabelPadding    = 8.0
	ClusterPadding  = 12.0
	pointsPerInch   = 72.0
	clusterPrefix   = "cluster_"
	clusterMarginPt = 16
)

// NodeSize returns the box size used for a state labelled text.
func NodeSize(text string) (w, h float64) {
	w = float64(utf8.RuneCountInString(text))*CharWidth + NodePadding
	return max(w, NodeMinWidth), NodeHeight
}

// LabelSize returns the size of an edge label.
func LabelSize(text string) (w, h float64) {
	return float64(utf8.RuneCountInString(text))*CharWidth + LabelPadding, LabelHeight
}

// ToDOT converts g to Graphviz DOT source.
func ToDOT(g *graph.DirectedGraph, opts Options) string {
	rankdir := opts.RankDir
	if rankdir == "" {
		rankdir = DefaultRankDir
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %s {\n", quote(g.ID))
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  splines=polyline;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  node [shape=box, fixedsize=true, fontsize=12];\n")
	buf.WriteString("  edge [arrowhead=none, fontsize=11];\n")
	buf.WriteString("\n")

	if root, ok := g.Node(g.Root); ok {
		writeNode(&buf, g, root, 1)
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %s -> %s [label=%s];\n", quote(e.Source), quote(e.Target), quote(e.Label))
	}
	buf.WriteString("}\n")
	return buf.String()
}

func writeNode(buf *bytes.Buffer, g *graph.DirectedGraph, n *graph.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	w, h := NodeSize(n.Key)
	node := fmt.Sprintf("%s%s [label=%s, width=%.3f, height=%.3f];\n",
		indent, quote(n.ID), quote(n.Key), w/pointsPerInch, h/pointsPerInch)

	if !n.IsCompound() {
		buf.WriteString(node)
		return
	}

	fmt.Fprintf(buf, "%ssubgraph %s {\n", indent, quote(clusterPrefix+n.ID))
	fmt.Fprintf(buf, "%s  label=\"\";\n", indent)
	fmt.Fprintf(buf, "%s  margin=%d;\n", indent, clusterMarginPt)
	buf.WriteString("  " + node)
	for _, c := range g.Children(n.ID) {
		writeNode(buf, g, c, depth+1)
	}
	fmt.Fprintf(buf, "%s}\n", indent)
}

// quote returns s as a DOT double-quoted string.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
