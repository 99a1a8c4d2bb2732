package geometry

import "math"

// Point is a position in drawing coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by v.
func (p Point) Add(v Point) Point {
	return Point{X: p.X + v.X, Y: p.Y + v.Y}
}

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Rect is the measured bounding box of a rendered element. X and Y locate the
// top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Left returns the x coordinate of the left edge.
func (r Rect) Left() float64 { return r.X }

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Top returns the y coordinate of the top edge.
func (r Rect) Top() float64 { return r.Y }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether p lies inside r or on its border.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left() && p.X <= r.Right() && p.Y >= r.Top() && p.Y <= r.Bottom()
}

// Inset shrinks r by d on every side. A negative d grows it.
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X + d, Y: r.Y + d, Width: r.Width - 2*d, Height: r.Height - 2*d}
}

// Translate returns r moved by v.
func (r Rect) Translate(v Point) Rect {
	r.X += v.X
	r.Y += v.Y
	return r
}

// Union returns the smallest rect containing both r and o.
func (r Rect) Union(o Rect) Rect {
	left := math.Min(r.Left(), o.Left())
	top := math.Min(r.Top(), o.Top())
	right := math.Max(r.Right(), o.Right())
	bottom := math.Max(r.Bottom(), o.Bottom())
	return Rect{X: left, Y: top, Width: right - left, Height: bottom - top}
}

// Boundary returns the point where the ray from r's center towards p leaves r.
// If p is the center itself, the center is returned.
func (r Rect) Boundary(p Point) Point {
	c := r.Center()
	d := p.Sub(c)
	if d.X == 0 && d.Y == 0 {
		return c
	}

	hw, hh := r.Width/2, r.Height/2
	t := math.Inf(1)
	if d.X != 0 {
		t = math.Min(t, hw/math.Abs(d.X))
	}
	if d.Y != 0 {
		t = math.Min(t, hh/math.Abs(d.Y))
	}
	if t > 1 {
		// p lies inside r; the ray never reaches the border before p.
		t = 1
	}
	return Point{X: c.X + d.X*t, Y: c.Y + d.Y*t}
}

// sign returns -1, 0 or +1 with the sign of v.
func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
