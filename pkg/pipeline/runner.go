package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/stateviz/pkg/cache"
	"github.com/matzehuels/stateviz/pkg/errors"
	"github.com/matzehuels/stateviz/pkg/graph"
	"github.com/matzehuels/stateviz/pkg/layout"
	"github.com/matzehuels/stateviz/pkg/machine"
	"github.com/matzehuels/stateviz/pkg/observability"
	"github.com/matzehuels/stateviz/pkg/render"
	"github.com/matzehuels/stateviz/pkg/sandbox"
)

// Cache key types reported to observability hooks.
const (
	keyTypeLayout   = "layout"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Parallelism bounds how many machines are laid out at once.
	// Zero uses GOMAXPROCS.
	Parallelism int
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete extract → layout → render pipeline.
//
// When opts.Machine is set only that machine is processed. Otherwise every
// extracted machine is laid out and rendered concurrently; results keep
// capture order.
func (r *Runner) Execute(ctx context.Context, source string, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	// Stage 1: Extract
	start := time.Now()
	defs, err := r.Extract(ctx, source, opts)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	result := &Result{Extracted: len(defs), ExtractTime: time.Since(start)}

	r.Logger.Info("extracted machines",
		"machines", len(defs),
		"duration", result.ExtractTime)

	result.Machines, err = r.Process(ctx, defs, opts)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Process lays out and renders already extracted machines. When
// opts.Machine is set only that machine is processed.
func (r *Runner) Process(ctx context.Context, defs []*machine.Definition, opts Options) ([]*MachineResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	indices := make([]int, len(defs))
	for i := range defs {
		indices[i] = i
	}
	if opts.Machine != "" {
		i, err := Select(defs, opts.Machine)
		if err != nil {
			return nil, err
		}
		indices = []int{i}
	}

	results := make([]*MachineResult, len(indices))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism())
	for slot, idx := range indices {
		g.Go(func() error {
			mr, err := r.processMachine(gctx, idx, defs[idx], opts)
			if err != nil {
				return fmt.Errorf("machine %q: %w", defs[idx].ID, err)
			}
			results[slot] = mr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) processMachine(ctx context.Context, idx int, def *machine.Definition, opts Options) (*MachineResult, error) {
	g := graph.FromMachine(def)
	mr := &MachineResult{
		Index:       idx,
		Definition:  def,
		Graph:       g,
		Unreachable: graph.Unreachable(g),
	}
	mr.Stats.NodeCount = len(g.Nodes)
	mr.Stats.EdgeCount = len(g.Edges)

	layoutStart := time.Now()
	l, hit, err := r.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	mr.Layout = l
	mr.Stats.LayoutTime = time.Since(layoutStart)
	mr.CacheInfo.LayoutHit = hit

	r.Logger.Debug("computed layout",
		"machine", def.ID,
		"nodes", mr.Stats.NodeCount,
		"edges", mr.Stats.EdgeCount,
		"cached", hit,
		"duration", mr.Stats.LayoutTime)

	renderStart := time.Now()
	out, err := r.RenderWithCacheInfo(ctx, g, l, mr.Unreachable, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	mr.Artifacts = out.Artifacts
	mr.Pending = out.Pending
	mr.Stats.RenderTime = time.Since(renderStart)
	mr.CacheInfo.RenderHit = out.Hit

	r.Logger.Debug("rendered outputs",
		"machine", def.ID,
		"formats", opts.Formats,
		"pending", out.Pending,
		"duration", mr.Stats.RenderTime)

	return mr, nil
}

// Extract evaluates the script and returns its machines in capture order.
// Extraction is never cached.
func (r *Runner) Extract(ctx context.Context, source string, opts Options) ([]*machine.Definition, error) {
	if err := errors.ValidateScript(source); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	hooks := observability.Pipeline()
	hooks.OnExtractStart(ctx, len(source))
	start := time.Now()

	ev := sandbox.New(
		sandbox.WithLogger(opts.Logger),
		sandbox.WithTimeout(opts.EvalTimeout()),
		sandbox.WithStrict(opts.Strict),
	)
	defs, err := ev.Extract(ctx, source)
	hooks.OnExtractComplete(ctx, len(defs), time.Since(start), err)
	return defs, err
}

// LayoutWithCacheInfo lays out g with caching and returns cache hit info.
// The layout's routes are applied to g's edges.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g *graph.DirectedGraph, opts Options) (*layout.Layout, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, g.ID, len(g.Nodes))
	start := time.Now()

	l, hit, err := r.layout(ctx, g, opts)
	hooks.OnLayoutComplete(ctx, g.ID, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}
	l.Apply(g)
	return l, hit, nil
}

func (r *Runner) layout(ctx context.Context, g *graph.DirectedGraph, opts Options) (*layout.Layout, bool, error) {
	// Hash the graph before any routes are attached to it.
	for _, e := range g.Edges {
		e.Sections = nil
	}
	graphHash, err := cache.HashJSON(g)
	if err != nil {
		return nil, false, fmt.Errorf("hash graph: %w", err)
	}
	key := r.Keyer.LayoutKey(graphHash, opts.LayoutKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if cached, err := layout.Unmarshal(data); err == nil {
				observability.Cache().OnCacheHit(ctx, keyTypeLayout)
				return cached, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeLayout)
	}

	l, err := layout.Compute(ctx, g, opts.LayoutOptions())
	if err != nil {
		return nil, false, err
	}

	if data, err := l.Marshal(); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.LayoutTTL); err != nil {
			r.Logger.Warn("cache layout", "machine", g.ID, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, keyTypeLayout, len(data))
		}
	}
	return l, false, nil
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, g *graph.DirectedGraph, opts Options) (*layout.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, g, opts)
	return l, err
}

// RenderOutput is the result of the render stage.
type RenderOutput struct {
	Artifacts map[string][]byte
	Pending   int
	Hit       bool // all artifacts came from cache
}

// RenderWithCacheInfo generates artifacts with caching. g must already
// carry the routes of l (see LayoutWithCacheInfo).
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *graph.DirectedGraph, l *layout.Layout, unreachable []string, opts Options) (*RenderOutput, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, g.ID, opts.Formats)
	start := time.Now()

	out, err := r.render(ctx, g, l, unreachable, opts)
	pending := 0
	if out != nil {
		pending = out.Pending
	}
	hooks.OnRenderComplete(ctx, g.ID, pending, time.Since(start), err)
	return out, err
}

func (r *Runner) render(ctx context.Context, g *graph.DirectedGraph, l *layout.Layout, unreachable []string, opts Options) (*RenderOutput, error) {
	layoutData, err := l.Marshal()
	if err != nil {
		return nil, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	out := &RenderOutput{Artifacts: make(map[string][]byte, len(opts.Formats)), Hit: true}
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, keyTypeArtifact)
				out.Artifacts[format] = data
				continue
			}
			observability.Cache().OnCacheMiss(ctx, keyTypeArtifact)
		}
		out.Hit = false

		data, pending, err := renderFormat(g, l, unreachable, format, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		out.Artifacts[format] = data
		out.Pending += pending

		if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err != nil {
			r.Logger.Warn("cache artifact", "machine", g.ID, "format", format, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, keyTypeArtifact, len(data))
		}
	}
	return out, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and returns only the artifacts.
func (r *Runner) Render(ctx context.Context, g *graph.DirectedGraph, l *layout.Layout, opts Options) (map[string][]byte, error) {
	out, err := r.RenderWithCacheInfo(ctx, g, l, graph.Unreachable(g), opts)
	if err != nil {
		return nil, err
	}
	return out.Artifacts, nil
}

// renderFormat produces one artifact and the number of undrawn edges.
func renderFormat(g *graph.DirectedGraph, l *layout.Layout, unreachable []string, format string, opts Options) ([]byte, int, error) {
	switch format {
	case FormatSVG:
		res, err := render.SVG(g, l, render.Options{Active: opts.Active, Theme: opts.Theme})
		if err != nil {
			return nil, 0, err
		}
		return res.SVG, res.Pending, nil
	case FormatJSON:
		data, err := json.MarshalIndent(Document{Graph: g, Layout: l, Unreachable: unreachable}, "", "  ")
		return data, 0, err
	case FormatDOT:
		return []byte(layout.ToDOT(g, opts.LayoutOptions())), 0, nil
	}
	return nil, 0, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) parallelism() int {
	if r.Parallelism > 0 {
		return r.Parallelism
	}
	return runtime.GOMAXPROCS(0)
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
