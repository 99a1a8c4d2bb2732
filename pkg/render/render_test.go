package render

import (
	"regexp"
	"strings"
	"testing"

	"github.com/matzehuels/stateviz/pkg/errors"
	"github.com/matzehuels/stateviz/pkg/graph"
	"github.com/matzehuels/stateviz/pkg/layout"
	"github.com/matzehuels/stateviz/pkg/machine"
)

const plain = `graph 1 3 2
node m 1.5 1.75 1 0.5 m solid box black lightgrey
node "m.a" 0.75 1 1 0.5 a solid box black lightgrey
node "m.b" 2.25 0.5 1 0.5 b solid box black lightgrey
edge "m.a" "m.b" 4 0.75 0.75 0.75 0.5 2.25 1 2.25 0.75 E 1.5 1 solid black
edge "m.b" "m.a" 7 2.25 0.5 2.25 0.5 2.25 0.25 2.25 0.25 1 0.25 0.75 0.75 0.75 0.75 solid black
stop
`

func fixture(t *testing.T, routing bool) (*graph.DirectedGraph, *layout.Layout) {
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
	g := graph.FromMachine(def)
	l, err := layout.FromPlain([]byte(plain), g, layout.Options{RankDir: "TB", Routing: routing})
	if err != nil {
		t.Fatal(err)
	}
	l.Apply(g)
	return g, l
}

func TestSVG(t *testing.T) {
	g, l := fixture(t, true)
	res, err := SVG(g, l, Options{})
	if err != nil {
		t.Fatalf("SVG: %v", err)
	}
	if res.Edges != 2 || res.Pending != 0 {
		t.Errorf("edges=%d pending=%d, want 2/0", res.Edges, res.Pending)
	}

	svg := string(res.SVG)
	for _, want := range []string{
		`viewBox="0 0 244.0 190.0"`,
		`data-viz="machine" data-viz-id="m"`,
		`data-viz-node="m.a" data-viz-type="atomic"`,
		`data-viz-node="m" data-viz-type="compound"`,
		// m.a at (18,54) shifted by margin minus the cluster's top-left (6,-12)
		`x="32.0" y="86.0" width="72.0" height="36.0"`,
		`data-viz="edgeGroup" data-viz-edge="m.a:0:0"`,
		`d="M68,122 L171,122"`,
		`id="marker-1-0"`,
		`id="marker-2-1"`,
		`>E</text>`,
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
}

var pathRe = regexp.MustCompile(`class="edge" d="([^"]*)"`)

func TestSVGActive(t *testing.T) {
	g, l := fixture(t, true)

	plainRes, err := SVG(g, l, Options{})
	if err != nil {
		t.Fatal(err)
	}
	activeRes, err := SVG(g, l, Options{Active: []string{"m.a"}})
	if err != nil {
		t.Fatal(err)
	}

	svg := string(activeRes.SVG)
	if !strings.Contains(svg, `data-viz-edge="m.a:0:0" data-viz-active="true"`) {
		t.Error("edge leaving an active state should be active")
	}
	if !strings.Contains(svg, `data-viz-edge="m.b:0:0" data-viz-active="false"`) {
		t.Error("edge leaving an inactive state should be inactive")
	}
	if !strings.Contains(svg, `data-viz-node="m.a" data-viz-type="atomic" data-viz-active="true"`) {
		t.Error("active state not flagged")
	}

	// The active flag never changes geometry.
	before := pathRe.FindAllStringSubmatch(string(plainRes.SVG), -1)
	after := pathRe.FindAllStringSubmatch(svg, -1)
	if len(before) != 2 || len(after) != 2 {
		t.Fatalf("paths: %d vs %d", len(before), len(after))
	}
	for i := range before {
		if before[i][1] != after[i][1] {
			t.Errorf("path %d changed: %s -> %s", i, before[i][1], after[i][1])
		}
	}
}

func TestSVGPending(t *testing.T) {
	g, l := fixture(t, true)
	delete(l.Labels, "m.b:0:0")

	res, err := SVG(g, l, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Edges != 1 || res.Pending != 1 {
		t.Errorf("edges=%d pending=%d, want 1/1", res.Edges, res.Pending)
	}
	if strings.Contains(string(res.SVG), `data-viz-edge="m.b:0:0"`) {
		t.Error("pending edge was drawn")
	}
}

func TestSVGFallbackRouting(t *testing.T) {
	g, l := fixture(t, false)
	for _, e := range g.Edges {
		if e.Sections != nil {
			t.Fatalf("edge %s has sections with routing off", e.ID)
		}
	}

	res, err := SVG(g, l, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Edges+res.Pending != 2 || res.Edges == 0 {
		t.Errorf("edges=%d pending=%d", res.Edges, res.Pending)
	}
}

func TestSVGEscapes(t *testing.T) {
	g, l := fixture(t, true)
	g.Edges[0].Label = `<b>&"`

	res, err := SVG(g, l, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(res.SVG), "<b>") {
		t.Error("label not escaped")
	}
}

func TestTheme(t *testing.T) {
	th := Theme{Active: "rgb(255,0,0)"}
	if err := th.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if th.Background != DefaultTheme().Background {
		t.Errorf("background = %q", th.Background)
	}
	if !strings.HasPrefix(th.Active, "#") {
		t.Errorf("active = %q, want hex", th.Active)
	}

	bad := Theme{Edge: "not-a-colour"}
	if err := bad.Normalize(); !errors.Is(err, errors.ErrCodeInvalidTheme) {
		t.Errorf("err = %v, want INVALID_THEME", err)
	}

	g, l := fixture(t, true)
	if _, err := SVG(g, l, Options{Theme: bad}); err == nil {
		t.Error("SVG accepted an invalid theme")
	}
}
