package geometry

import (
	"strconv"
	"strings"
)

// CommandKind identifies the kind of a path command.
type CommandKind byte

// Path command kinds, named after their SVG letters.
const (
	MoveTo    CommandKind = 'M'
	LineTo    CommandKind = 'L'
	ClosePath CommandKind = 'Z'
)

// String returns the SVG letter for k.
func (k CommandKind) String() string { return string(rune(k)) }

// PathCommand is a single drawing command. Point is ignored for ClosePath.
type PathCommand struct {
	Kind  CommandKind `json:"kind"`
	Point Point       `json:"point"`
}

// Move returns a move-to command.
func Move(x, y float64) PathCommand { return PathCommand{Kind: MoveTo, Point: Point{X: x, Y: y}} }

// Line returns a line-to command.
func Line(x, y float64) PathCommand { return PathCommand{Kind: LineTo, Point: Point{X: x, Y: y}} }

// SvgPath is an ordered sequence of drawing commands.
type SvgPath []PathCommand

// Last returns the point of the final command that carries one.
func (p SvgPath) Last() (Point, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Kind == MoveTo || p[i].Kind == LineTo {
			return p[i].Point, true
		}
	}
	return Point{}, false
}

// Equal reports whether p and o contain the same commands.
func (p SvgPath) Equal(o SvgPath) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// D serializes p as the value of an SVG d attribute, e.g. "M0,0 L5,0".
func (p SvgPath) D() string {
	var b strings.Builder
	for i, cmd := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(byte(cmd.Kind))
		switch cmd.Kind {
		case MoveTo, LineTo:
			b.WriteString(formatCoord(cmd.Point.X))
			b.WriteByte(',')
			b.WriteString(formatCoord(cmd.Point.Y))
		}
	}
	return b.String()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Translate returns a copy of path with v added to the point of every move
// and line command. Other commands are copied unchanged.
//
// Translate composes additively, and translating by the zero vector yields a
// path equal to the input.
func Translate(path SvgPath, v Point) SvgPath {
	if path == nil {
		return nil
	}
	out := make(SvgPath, len(path))
	for i, cmd := range path {
		switch cmd.Kind {
		case MoveTo, LineTo:
			out[i] = PathCommand{Kind: cmd.Kind, Point: cmd.Point.Add(v)}
		default:
			out[i] = cmd
		}
	}
	return out
}
