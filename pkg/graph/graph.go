package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalGraph converts a graph to indented JSON bytes.
func MarshalGraph(g *DirectedGraph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalGraphs converts several graphs to a JSON array, keeping their order.
func MarshalGraphs(gs []*DirectedGraph) ([]byte, error) {
	if gs == nil {
		gs = []*DirectedGraph{}
	}
	data, err := json.MarshalIndent(gs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

// WriteGraph writes a graph as JSON to an io.Writer.
func WriteGraph(g *DirectedGraph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// UnmarshalGraph decodes and validates a JSON graph.
func UnmarshalGraph(data []byte) (*DirectedGraph, error) {
	return ReadGraph(bytes.NewReader(data))
}

// ReadGraph decodes and validates a JSON graph from an io.Reader.
func ReadGraph(r io.Reader) (*DirectedGraph, error) {
	var g DirectedGraph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	return &g, nil
}
