// Package pipeline provides the core visualization pipeline for stateviz.
//
// This package implements the complete extract → layout → render pipeline
// used by the CLI and the HTTP API. By centralizing this logic, both entry
// points validate options, cache layouts and report progress the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Extract: Evaluate the script in the sandbox and capture its machines
//  2. Layout: Build the transition graph and compute positions and routes
//  3. Render: Generate output in various formats (SVG, JSON, DOT)
//
// Extraction is never cached. Layouts and artifacts are cached by content
// hash, so re-rendering an unchanged machine skips Graphviz entirely.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Machine: "toggle",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, source, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Machines[0].Artifacts["svg"]
//
// Run individual stages:
//
//	defs, err := runner.Extract(ctx, source, opts)
//	g := graph.FromMachine(defs[0])
//	l, err := runner.Layout(ctx, g, opts)
//	artifacts, err := runner.Render(ctx, g, l, opts)
package pipeline

import (
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stateviz/pkg/cache"
	"github.com/matzehuels/stateviz/pkg/errors"
	"github.com/matzehuels/stateviz/pkg/graph"
	"github.com/matzehuels/stateviz/pkg/layout"
	"github.com/matzehuels/stateviz/pkg/machine"
	"github.com/matzehuels/stateviz/pkg/render"
	"github.com/matzehuels/stateviz/pkg/sandbox"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// DefaultTimeout is the script evaluation budget.
const DefaultTimeout = sandbox.DefaultTimeout

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatJSON: true,
	FormatDOT:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the visualization pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Extract options
	Timeout time.Duration `json:"timeout,omitempty"` // zero uses DefaultTimeout, negative disables
	Strict  bool          `json:"strict,omitempty"`
	Machine string        `json:"machine,omitempty"` // machine ID or capture index

	// Layout options
	RankDir string `json:"rankdir,omitempty"`
	Routing *bool  `json:"routing,omitempty"` // nil means enabled
	Refresh bool   `json:"refresh,omitempty"`

	// Render options
	Formats []string     `json:"formats,omitempty"`
	Active  []string     `json:"active,omitempty"`
	Theme   render.Theme `json:"theme,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Machines holds one entry per rendered machine, in capture order.
	Machines []*MachineResult

	// Extracted is the number of machines the script defined.
	Extracted int

	// ExtractTime is the duration of script evaluation.
	ExtractTime time.Duration
}

// MachineResult contains the outputs for a single machine.
type MachineResult struct {
	// Index is the machine's position in capture order.
	Index int

	// Definition is the extracted machine.
	Definition *machine.Definition

	// Graph is the transition graph with layout sections applied.
	Graph *graph.DirectedGraph

	// Layout contains the measured geometry.
	Layout *layout.Layout

	// Unreachable lists states that can never be entered.
	Unreachable []string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Pending is the number of edges the SVG renderer could not draw.
	// It is only known when the SVG was rendered rather than read from cache.
	Pending int

	// Stats contains timing information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether layout result came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// Document is the JSON artifact of a machine.
type Document struct {
	Graph       *graph.DirectedGraph `json:"graph"`
	Layout      *layout.Layout       `json:"layout"`
	Unreachable []string             `json:"unreachable,omitempty"`
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, json, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks all fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	lo := o.LayoutOptions()
	if err := lo.ValidateAndSetDefaults(); err != nil {
		return err
	}
	o.RankDir = lo.RankDir

	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	for _, id := range o.Active {
		if err := errors.ValidateStateID(id); err != nil {
			return err
		}
	}
	if err := o.Theme.Normalize(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	o.validated = true
	return nil
}

// RoutingEnabled reports whether Graphviz edge routes are kept.
func (o *Options) RoutingEnabled() bool {
	return o.Routing == nil || *o.Routing
}

// EvalTimeout returns the sandbox budget, with zero meaning unbounded.
func (o *Options) EvalTimeout() time.Duration {
	switch {
	case o.Timeout < 0:
		return 0
	case o.Timeout == 0:
		return DefaultTimeout
	}
	return o.Timeout
}

// LayoutOptions returns the options for the layout engine.
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{RankDir: o.RankDir, Routing: o.RoutingEnabled()}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{RankDir: o.RankDir, Routing: o.RoutingEnabled()}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format}
	if format == FormatSVG {
		opts.Active = o.Active
		opts.Theme, _ = cache.HashJSON(o.Theme)
	}
	return opts
}

// Select picks the machine named by selector, which is either a machine ID
// or a zero-based capture index. IDs take precedence.
func Select(defs []*machine.Definition, selector string) (int, error) {
	for i, d := range defs {
		if d.ID == selector {
			return i, nil
		}
	}
	if i, err := strconv.Atoi(selector); err == nil && i >= 0 && i < len(defs) {
		return i, nil
	}
	return -1, errors.New(errors.ErrCodeMachineNotFound, "no machine %q in script (%d defined)", selector, len(defs))
}
