package layout

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/stateviz/pkg/errors"
	"github.com/matzehuels/stateviz/pkg/geometry"
	"github.com/matzehuels/stateviz/pkg/graph"
	"github.com/matzehuels/stateviz/pkg/machine"
)

// pingPong is m { a --E--> b, b --F--> a }.
func pingPong(t *testing.T) *graph.DirectedGraph {
	t.Helper()
	def, err := machine.New(machine.Config{StateConfig: machine.StateConfig{
		ID:      "m",
		Initial: "a",
		States: []machine.StateConfig{
			{Key: "a", On: []machine.TransitionConfig{{Event: "E", Targets: []string{"b"}}}},
			{Key: "b", On: []machine.TransitionConfig{{Event: "F", Targets: []string{"a"}}}},
		},
	}})
	if err != nil {
		t.Fatal(err)
	}
	return graph.FromMachine(def)
}

const pingPongPlain = `graph 1 3 2
node m 1.5 1.75 1 0.5 m solid box black lightgrey
node "m.a" 0.75 1 1 0.5 a solid box black lightgrey
node "m.b" 2.25 0.5 1 0.5 b solid box black lightgrey
edge "m.a" "m.b" 4 0.75 0.75 0.75 0.5 2.25 1 2.25 0.75 E 1.5 1 solid black
edge "m.b" "m.a" 7 2.25 0.5 2.25 0.5 2.25 0.25 2.25 0.25 1 0.25 0.75 0.75 0.75 0.75 solid black
stop
`

func TestFromPlain(t *testing.T) {
	g := pingPong(t)
	l, err := FromPlain([]byte(pingPongPlain), g, Options{RankDir: "TB", Routing: true})
	if err != nil {
		t.Fatalf("FromPlain: %v", err)
	}

	if l.Width != 216 || l.Height != 144 {
		t.Errorf("size = %vx%v, want 216x144", l.Width, l.Height)
	}

	tests := []struct {
		id   string
		want geometry.Rect
	}{
		{"m.a", geometry.Rect{X: 18, Y: 54, Width: 72, Height: 36}},
		{"m.b", geometry.Rect{X: 126, Y: 90, Width: 72, Height: 36}},
		// header (72,0)-(144,36) united with both children, then padded
		{"m", geometry.Rect{X: 6, Y: -12, Width: 204, Height: 150}},
	}
	for _, tt := range tests {
		if got := l.Nodes[tt.id]; got != tt.want {
			t.Errorf("Nodes[%q] = %+v, want %+v", tt.id, got, tt.want)
		}
	}

	s := l.Sections["m.a:0:0"]
	if len(s) != 1 {
		t.Fatalf("sections = %+v", s)
	}
	if s[0].Start != (geometry.Point{X: 54, Y: 90}) || s[0].End != (geometry.Point{X: 162, Y: 90}) || len(s[0].Bends) != 0 {
		t.Errorf("section = %+v", s[0])
	}
	if got := l.Labels["m.a:0:0"]; got != (geometry.Rect{X: 100.5, Y: 64, Width: 15, Height: 16}) {
		t.Errorf("label = %+v", got)
	}

	back := l.Sections["m.b:0:0"][0]
	wantBends := []geometry.Point{{X: 162, Y: 126}}
	if !reflect.DeepEqual(back.Bends, wantBends) {
		t.Errorf("bends = %+v, want %+v", back.Bends, wantBends)
	}
	// No label position in the output: the label sits on the route.
	if c := l.Labels["m.b:0:0"].Center(); c != (geometry.Point{X: 162, Y: 126}) {
		t.Errorf("label center = %+v", c)
	}
}

func TestFromPlainMissing(t *testing.T) {
	g := pingPong(t)
	tests := []struct {
		name, data, want string
	}{
		{"missing node", "graph 1 3 2\nnode m 1 1 1 1 m solid box black white\nstop\n", `state "m.a"`},
		{"missing edge", strings.SplitAfter(pingPongPlain, "lightgrey\n")[0] +
			"node \"m.a\" 1 1 1 1 a solid box black white\nnode \"m.b\" 1 1 1 1 b solid box black white\nstop\n", `edge "m.a:0:0"`},
		{"bad number", "graph 1 x 2\n", "bad number"},
		{"unknown statement", "hello\n", "unknown statement"},
		{"unterminated", "node \"m\n", "unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromPlain([]byte(tt.data), g, Options{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{`node a 1 2`, []string{"node", "a", "1", "2"}},
		{`node "a b" 1`, []string{"node", "a b", "1"}},
		{`edge "x\"y" "" 2`, []string{"edge", `x"y`, "", "2"}},
		{`  spaced   out  `, []string{"spaced", "out"}},
		{`label "two\nlines"`, []string{"label", "two\nlines"}},
	}
	for _, tt := range tests {
		got, err := tokenize(tt.line)
		if err != nil {
			t.Errorf("tokenize(%q): %v", tt.line, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("tokenize(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(pingPong(t), Options{RankDir: "LR"})

	for _, want := range []string{
		"rankdir=LR;",
		"splines=polyline;",
		"arrowhead=none",
		`subgraph "cluster_m" {`,
		`"m.a" [label="a", width=1.000, height=0.500];`,
		`"m.a" -> "m.b" [label="E"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestQuote(t *testing.T) {
	if got := quote(`say "hi"` + "\n" + `a\b`); got != `"say \"hi\"\na\\b"` {
		t.Errorf("quote = %s", got)
	}
}

func TestOptions(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil || o.RankDir != DefaultRankDir {
		t.Errorf("defaults: %v %+v", err, o)
	}
	bad := Options{RankDir: "up"}
	if err := bad.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v", err)
	}
}

func TestApply(t *testing.T) {
	g := pingPong(t)
	l, err := FromPlain([]byte(pingPongPlain), g, Options{Routing: true})
	if err != nil {
		t.Fatal(err)
	}

	l.Apply(g)
	if len(g.Edges[0].Sections) != 1 {
		t.Fatalf("routing on: sections = %+v", g.Edges[0].Sections)
	}

	l.Routing = false
	l.Apply(g)
	for _, e := range g.Edges {
		if e.Sections != nil {
			t.Errorf("routing off: edge %s kept sections", e.ID)
		}
	}
}

func TestLayoutJSON(t *testing.T) {
	g := pingPong(t)
	l, err := FromPlain([]byte(pingPongPlain), g, Options{RankDir: "TB", Routing: true})
	if err != nil {
		t.Fatal(err)
	}
	data, err := l.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back, l) {
		t.Errorf("round trip changed layout:\n%+v\n%+v", back, l)
	}
	if l.Rect("nope") != nil || l.LabelRect("nope") != nil {
		t.Error("unknown IDs should have no rect")
	}
}

func TestCompute(t *testing.T) {
	if testing.Short() {
		t.Skip("runs graphviz")
	}
	g := pingPong(t)
	l, err := Compute(context.Background(), g, Options{Routing: true})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	for _, n := range g.Nodes {
		r := l.Rect(n.ID)
		if r == nil || r.Width <= 0 || r.Height <= 0 {
			t.Errorf("node %s: rect %+v", n.ID, r)
		}
	}
	root := l.Nodes["m"]
	for _, id := range []string{"m.a", "m.b"} {
		if !root.Contains(l.Nodes[id].Center()) {
			t.Errorf("cluster does not contain %s", id)
		}
	}
	for _, e := range g.Edges {
		if len(l.Sections[e.ID]) != 1 {
			t.Errorf("edge %s: sections %+v", e.ID, l.Sections[e.ID])
		}
	}
}
