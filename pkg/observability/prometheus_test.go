package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/stateviz/pkg/errors"
)

func TestPrometheusHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewPrometheusHooks(reg)
	ctx := context.Background()

	h.OnExtractComplete(ctx, 2, time.Millisecond, nil)
	h.OnExtractComplete(ctx, 0, time.Millisecond, errors.New(errors.ErrCodeTimeout, "slow"))
	h.OnRenderComplete(ctx, "m", 3, time.Millisecond, nil)
	h.OnCacheHit(ctx, "layout")
	h.OnCacheMiss(ctx, "layout")
	h.OnCacheSet(ctx, "layout", 10)
	h.OnResponse(ctx, "POST", "/v1/render", 200, time.Millisecond)

	if got := testutil.ToFloat64(h.extractions.WithLabelValues("OK")); got != 1 {
		t.Errorf("ok extractions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(h.extractions.WithLabelValues(string(errors.ErrCodeTimeout))); got != 1 {
		t.Errorf("timeout extractions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(h.machines); got != 2 {
		t.Errorf("machines = %v, want 2", got)
	}
	if got := testutil.ToFloat64(h.pending); got != 3 {
		t.Errorf("pending = %v, want 3", got)
	}
	if got := testutil.ToFloat64(h.cacheOps.WithLabelValues("layout", "hit")); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(h.cacheBytes); got != 10 {
		t.Errorf("cache bytes = %v, want 10", got)
	}
	if got := testutil.ToFloat64(h.requests.WithLabelValues("POST", "/v1/render", "200")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
}

func TestPrometheusHooksDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheusHooks(reg)
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewPrometheusHooks(reg)
}
