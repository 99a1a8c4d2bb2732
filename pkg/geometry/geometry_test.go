package geometry

import (
	"math"
	"testing"
)

func TestComputePathRouted(t *testing.T) {
	src := &Rect{X: 0, Y: 0, Width: 10, Height: 10}
	lbl := &Rect{X: 20, Y: 0, Width: 10, Height: 10}
	dst := &Rect{X: 40, Y: 0, Width: 10, Height: 10}

	tests := []struct {
		name    string
		section RoutingSection
		want    SvgPath
	}{
		{
			name:    "no bends retracts along x",
			section: RoutingSection{Start: Point{0, 0}, End: Point{10, 0}},
			want:    SvgPath{Move(0, 0), Line(5, 0)},
		},
		{
			name:    "retracts relative to last bend",
			section: RoutingSection{Start: Point{0, 0}, End: Point{10, 0}, Bends: []Point{{10, 10}}},
			want:    SvgPath{Move(0, 0), Line(10, 10), Line(10, 5)},
		},
		{
			name:    "diagonal retracts on both axes",
			section: RoutingSection{Start: Point{0, 0}, End: Point{20, 20}},
			want:    SvgPath{Move(0, 0), Line(15, 15)},
		},
		{
			name:    "bends kept in order without dedup",
			section: RoutingSection{Start: Point{0, 0}, End: Point{30, 0}, Bends: []Point{{10, 0}, {10, 0}, {20, 5}}},
			want:    SvgPath{Move(0, 0), Line(10, 0), Line(10, 0), Line(20, 5), Line(25, 0)},
		},
		{
			name:    "end equal to last point is not moved",
			section: RoutingSection{Start: Point{3, 4}, End: Point{3, 4}},
			want:    SvgPath{Move(3, 4), Line(3, 4)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ComputePath([]RoutingSection{tt.section}, src, lbl, dst, nil)
			if !ok {
				t.Fatal("ComputePath returned no path")
			}
			if !got.Equal(tt.want) {
				t.Errorf("ComputePath() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputePathUsesFirstSection(t *testing.T) {
	r := &Rect{Width: 1, Height: 1}
	sections := []RoutingSection{
		{Start: Point{0, 0}, End: Point{10, 0}},
		{Start: Point{100, 100}, End: Point{200, 100}},
	}
	got, ok := ComputePath(sections, r, r, r, nil)
	if !ok || got[0].Point != (Point{0, 0}) {
		t.Errorf("ComputePath() = %v, want path from first section", got)
	}
}

func TestComputePathMissingRects(t *testing.T) {
	r := &Rect{Width: 10, Height: 10}
	section := []RoutingSection{{Start: Point{0, 0}, End: Point{10, 0}}}
	called := false
	router := RouterFunc(func(_, _, _ Rect) SvgPath {
		called = true
		return SvgPath{Move(0, 0), Line(1, 1)}
	})

	tests := []struct {
		name          string
		src, lbl, dst *Rect
		sections      []RoutingSection
	}{
		{"no source", nil, r, r, nil},
		{"no label", r, nil, r, nil},
		{"no target", r, r, nil, nil},
		{"none", nil, nil, nil, nil},
		{"no source with routing", nil, r, r, section},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ComputePath(tt.sections, tt.src, tt.lbl, tt.dst, router)
			if ok || got != nil {
				t.Errorf("ComputePath() = %v, %v; want nil, false", got, ok)
			}
		})
	}
	if called {
		t.Error("fallback router should not be consulted when measurements are missing")
	}
}

func TestComputePathFallback(t *testing.T) {
	r := &Rect{Width: 10, Height: 10}

	want := SvgPath{Move(1, 2), Line(3, 4)}
	got, ok := ComputePath(nil, r, r, r, RouterFunc(func(_, _, _ Rect) SvgPath { return want }))
	if !ok || !got.Equal(want) {
		t.Errorf("ComputePath() = %v, %v; want %v", got, ok, want)
	}

	if got, ok := ComputePath(nil, r, r, r, RouterFunc(func(_, _, _ Rect) SvgPath { return nil })); ok || got != nil {
		t.Errorf("empty fallback result should be absent, got %v", got)
	}
	if got, ok := ComputePath(nil, r, r, r, RouterFunc(func(_, _, _ Rect) SvgPath { return SvgPath{} })); ok || got != nil {
		t.Errorf("zero-length fallback result should be absent, got %v", got)
	}
	if _, ok := ComputePath(nil, r, r, r, nil); ok {
		t.Error("nil router should yield no path")
	}
}

func TestTranslate(t *testing.T) {
	path := SvgPath{Move(0, 0), Line(10, 5), {Kind: ClosePath}, Line(-3, 2.5)}

	if got := Translate(path, Point{}); !got.Equal(path) {
		t.Errorf("Translate(p, 0) = %v, want %v", got, path)
	}

	vectors := []struct{ v1, v2 Point }{
		{Point{1, 2}, Point{3, 4}},
		{Point{-5, 0}, Point{5, 0}},
		{Point{0.5, -0.25}, Point{100, 100}},
	}
	for _, tt := range vectors {
		twice := Translate(Translate(path, tt.v1), tt.v2)
		once := Translate(path, tt.v1.Add(tt.v2))
		if !twice.Equal(once) {
			t.Errorf("Translate composition mismatch for %v+%v: %v != %v", tt.v1, tt.v2, twice, once)
		}
	}

	moved := Translate(path, Point{1, 1})
	if moved[2] != path[2] {
		t.Errorf("close command changed: %v", moved[2])
	}
	if path[1].Point != (Point{10, 5}) {
		t.Error("Translate mutated its input")
	}
	if Translate(nil, Point{1, 1}) != nil {
		t.Error("Translate(nil) should be nil")
	}
}

func TestPathD(t *testing.T) {
	tests := []struct {
		path SvgPath
		want string
	}{
		{SvgPath{Move(0, 0), Line(5, 0)}, "M0,0 L5,0"},
		{SvgPath{Move(1.5, -2), Line(3, 4), {Kind: ClosePath}}, "M1.5,-2 L3,4 Z"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := tt.path.D(); got != tt.want {
			t.Errorf("D() = %q, want %q", got, tt.want)
		}
	}
}

func TestMarkerID(t *testing.T) {
	if got := MarkerID(3, 7); got != "3-7" {
		t.Errorf("MarkerID(3, 7) = %q, want %q", got, "3-7")
	}
	seen := map[string]bool{}
	for edge := 0; edge < 5; edge++ {
		id := MarkerID(2, edge)
		if seen[id] {
			t.Errorf("duplicate marker id %q for shared source", id)
		}
		seen[id] = true
	}
}

func TestRectBoundary(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 20, Height: 10}

	tests := []struct {
		name string
		p    Point
		want Point
	}{
		{"right", Point{100, 5}, Point{20, 5}},
		{"left", Point{-100, 5}, Point{0, 5}},
		{"below", Point{10, 50}, Point{10, 10}},
		{"center", Point{10, 5}, Point{10, 5}},
		{"inside", Point{12, 5}, Point{12, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Boundary(tt.p)
			if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Y-tt.want.Y) > 1e-9 {
				t.Errorf("Boundary(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestRectUnion(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 20, Y: -5, Width: 5, Height: 5}
	want := Rect{X: 0, Y: -5, Width: 25, Height: 15}
	if got := a.Union(b); got != want {
		t.Errorf("Union() = %v, want %v", got, want)
	}
}

func TestStraightRouter(t *testing.T) {
	src := Rect{X: 0, Y: 0, Width: 20, Height: 20}
	lbl := Rect{X: 40, Y: 5, Width: 20, Height: 10}
	dst := Rect{X: 100, Y: 0, Width: 20, Height: 20}

	path := StraightRouter{}.Route(src, lbl, dst)
	want := SvgPath{Move(20, 10), Line(40, 10), Line(60, 10), Line(95, 10)}
	if !path.Equal(want) {
		t.Errorf("Route() = %v, want %v", path, want)
	}

	t.Run("label overlapping a node", func(t *testing.T) {
		if got := (StraightRouter{}).Route(src, Rect{X: 5, Y: 5, Width: 4, Height: 4}, dst); got != nil {
			t.Errorf("Route() = %v, want nil", got)
		}
	})

	t.Run("self transition", func(t *testing.T) {
		got := StraightRouter{}.Route(src, lbl, src)
		if len(got) == 0 {
			t.Fatal("self transition should be routed")
		}
		if got[0].Kind != MoveTo {
			t.Errorf("first command = %v, want move", got[0].Kind)
		}
	})
}
