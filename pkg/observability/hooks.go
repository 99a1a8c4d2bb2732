// Package observability lets the pipeline, the cache and the HTTP server
// report what they do without depending on a metrics backend.
//
// Each event category has an interface with a no-op default. Callers fetch
// the current implementation with [Pipeline], [Cache] or [HTTP] at the
// point of use; binaries install real ones at startup:
//
//	restore := observability.Install(observability.NewPrometheusHooks(reg))
//	defer restore()
//
// [PrometheusHooks] implements all three interfaces and backs /metrics.
// [LogHooks] writes pipeline and cache events to a charm logger at debug
// level; "stateviz -v" installs it.
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// =============================================================================
// Interfaces
// =============================================================================

// PipelineHooks receives one start and one completion event per stage.
// Layout and render events fire once per machine, possibly concurrently.
type PipelineHooks interface {
	OnExtractStart(ctx context.Context, scriptSize int)
	OnExtractComplete(ctx context.Context, machines int, duration time.Duration, err error)

	OnLayoutStart(ctx context.Context, machineID string, nodeCount int)
	OnLayoutComplete(ctx context.Context, machineID string, duration time.Duration, err error)

	OnRenderStart(ctx context.Context, machineID string, formats []string)
	OnRenderComplete(ctx context.Context, machineID string, pending int, duration time.Duration, err error)
}

// CacheHooks receives cache lookups and writes. keyType is "layout" or
// "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives API requests. route is the chi route pattern, not the
// raw path, so that label cardinality stays bounded.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, route string)
	OnResponse(ctx context.Context, method, route string, status int, duration time.Duration)
}

// NoopPipelineHooks ignores every event.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnExtractStart(context.Context, int)                                 {}
func (NoopPipelineHooks) OnExtractComplete(context.Context, int, time.Duration, error)        {}
func (NoopPipelineHooks) OnLayoutStart(context.Context, string, int)                          {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, string, time.Duration, error)      {}
func (NoopPipelineHooks) OnRenderStart(context.Context, string, []string)                     {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, string, int, time.Duration, error) {}

// NoopCacheHooks ignores every event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores every event.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                     {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Registry
// =============================================================================

// hookSet is replaced as a whole on every change, so readers never lock.
type hookSet struct {
	pipeline PipelineHooks
	cache    CacheHooks
	http     HTTPHooks
}

var current atomic.Pointer[hookSet]

func init() { Reset() }

func update(fn func(*hookSet)) *hookSet {
	for {
		old := current.Load()
		next := *old
		fn(&next)
		if current.CompareAndSwap(old, &next) {
			return old
		}
	}
}

// SetPipelineHooks replaces the pipeline hooks. nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		update(func(s *hookSet) { s.pipeline = h })
	}
}

// SetCacheHooks replaces the cache hooks. nil is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(s *hookSet) { s.cache = h })
	}
}

// SetHTTPHooks replaces the HTTP hooks. nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(s *hookSet) { s.http = h })
	}
}

// Install registers h for every hook interface it implements and returns a
// function that restores the previous hooks.
func Install(h any) (restore func()) {
	old := update(func(s *hookSet) {
		if p, ok := h.(PipelineHooks); ok {
			s.pipeline = p
		}
		if c, ok := h.(CacheHooks); ok {
			s.cache = c
		}
		if x, ok := h.(HTTPHooks); ok {
			s.http = x
		}
	})
	return func() { current.Store(old) }
}

// Pipeline returns the current pipeline hooks.
func Pipeline() PipelineHooks { return current.Load().pipeline }

// Cache returns the current cache hooks.
func Cache() CacheHooks { return current.Load().cache }

// HTTP returns the current HTTP hooks.
func HTTP() HTTPHooks { return current.Load().http }

// Reset restores the no-op hooks.
func Reset() {
	current.Store(&hookSet{
		pipeline: NoopPipelineHooks{},
		cache:    NoopCacheHooks{},
		http:     NoopHTTPHooks{},
	})
}
