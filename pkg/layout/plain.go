package layout

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/stateviz/pkg/geometry"
)

// plainGraph is the parsed Graphviz "plain" output. Coordinates are still in
// inches with the origin at the bottom left.
type plainGraph struct {
	Width, Height float64
	Nodes         map[string]plainNode
	Edges         []plainEdge
}

type plainNode struct {
	X, Y, Width, Height float64
}

type plainEdge struct {
	Tail, Head string
	Points     []geometry.Point
	Label      string
	LabelPos   *geometry.Point
}

// parsePlain reads the statements of a plain layout:
//
//	graph scale width height
//	node name x y width height label style shape color fillcolor
//	edge tail head n x1 y1 .. xn yn [label xl yl] style color
//	stop
func parsePlain(data []byte) (*plainGraph, error) {
	pg := &plainGraph{Nodes: make(map[string]plainNode)}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for line := 1; sc.Scan(); line++ {
		toks, err := tokenize(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(toks) == 0 {
			continue
		}
		switch toks[0] {
		case "graph":
			f, err := floats(toks[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: graph: %w", line, err)
			}
			pg.Width, pg.Height = f[1], f[2]
		case "node":
			if len(toks) < 6 {
				return nil, fmt.Errorf("line %d: node: too few fields", line)
			}
			f, err := floats(toks[2:], 4)
			if err != nil {
				return nil, fmt.Errorf("line %d: node %s: %w", line, toks[1], err)
			}
			pg.Nodes[toks[1]] = plainNode{X: f[0], Y: f[1], Width: f[2], Height: f[3]}
		case "edge":
			e, err := parseEdge(toks)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			pg.Edges = append(pg.Edges, e)
		case "stop":
			return pg, nil
		default:
			return nil, fmt.Errorf("line %d: unknown statement %q", line, toks[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return pg, nil
}

func parseEdge(toks []string) (plainEdge, error) {
	if len(toks) < 4 {
		return plainEdge{}, fmt.Errorf("edge: too few fields")
	}
	e := plainEdge{Tail: toks[1], Head: toks[2]}
	n, err := strconv.Atoi(toks[3])
	if err != nil || n < 1 {
		return e, fmt.Errorf("edge %s->%s: bad point count %q", e.Tail, e.Head, toks[3])
	}

	rest := toks[4:]
	f, err := floats(rest, 2*n)
	if err != nil {
		return e, fmt.Errorf("edge %s->%s: %w", e.Tail, e.Head, err)
	}
	for i := 0; i < n; i++ {
		e.Points = append(e.Points, geometry.Point{X: f[2*i], Y: f[2*i+1]})
	}

	// What follows is either "style color" or "label xl yl style color".
	rest = rest[2*n:]
	if len(rest) >= 5 {
		pos, err := floats(rest[1:], 2)
		if err != nil {
			return e, fmt.Errorf("edge %s->%s: label: %w", e.Tail, e.Head, err)
		}
		e.Label = rest[0]
		e.LabelPos = &geometry.Point{X: pos[0], Y: pos[1]}
	}
	return e, nil
}

func floats(toks []string, n int) ([]float64, error) {
	if len(toks) < n {
		return nil, fmt.Errorf("want %d numbers, got %d fields", n, len(toks))
	}
	out := make([]float64, n)
	for i := range n {
		f, err := strconv.ParseFloat(toks[i], 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", toks[i])
		}
		out[i] = f
	}
	return out, nil
}

// tokenize splits a plain-format line into fields. Double-quoted fields may
// contain spaces and backslash escapes.
func tokenize(line string) ([]string, error) {
	var toks []string
	var cur strings.Builder
	inQuote, escaped, started := false, false, false

	for _, r := range line {
		switch {
		case escaped:
			if r == 'n' {
				cur.WriteRune('\n')
			} else {
				cur.WriteRune(r)
			}
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && (r == ' ' || r == '\t'):
			if started {
				toks = append(toks, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	if started {
		toks = append(toks, cur.String())
	}
	return toks, nil
}
