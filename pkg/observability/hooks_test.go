package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

type countingHooks struct {
	NoopPipelineHooks
	NoopCacheHooks
	mu   sync.Mutex
	hits int
}

func (h *countingHooks) OnCacheHit(context.Context, string) {
	h.mu.Lock()
	h.hits++
	h.mu.Unlock()
}

type testHTTPHooks struct{ NoopHTTPHooks }

func TestRegistryDefaults(t *testing.T) {
	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Errorf("Pipeline() = %T", Pipeline())
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("Cache() = %T", Cache())
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Errorf("HTTP() = %T", HTTP())
	}
}

func TestSetHooks(t *testing.T) {
	defer Reset()
	h := &countingHooks{}
	SetCacheHooks(h)
	SetCacheHooks(nil)
	if Cache() != h {
		t.Error("nil replaced the cache hooks")
	}

	x := &testHTTPHooks{}
	SetHTTPHooks(x)
	if HTTP() != x {
		t.Error("SetHTTPHooks ignored")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("SetCacheHooks touched the pipeline hooks")
	}
}

func TestInstall(t *testing.T) {
	Reset()
	defer Reset()
	x := &testHTTPHooks{}
	SetHTTPHooks(x)

	h := &countingHooks{}
	restore := Install(h)
	if Pipeline() != h || Cache() != h {
		t.Error("Install did not register every implemented interface")
	}
	if HTTP() != x {
		t.Error("Install replaced hooks h does not implement")
	}

	restore()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("restore did not bring back the previous hooks")
	}
	if HTTP() != x {
		t.Error("restore lost the HTTP hooks")
	}
}

func TestConcurrentUse(t *testing.T) {
	defer Reset()
	h := &countingHooks{}
	Install(h)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				Cache().OnCacheHit(context.Background(), "layout")
				SetHTTPHooks(&testHTTPHooks{})
			}
		}()
	}
	wg.Wait()
	if h.hits != 800 {
		t.Errorf("hits = %d, want 800", h.hits)
	}
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	l := log.New(&buf)
	l.SetLevel(log.DebugLevel)
	h := NewLogHooks(l)
	ctx := context.Background()

	h.OnExtractStart(ctx, 42)
	h.OnExtractComplete(ctx, 2, time.Millisecond, nil)
	h.OnLayoutComplete(ctx, "light", time.Millisecond, errors.New("graphviz exploded"))
	h.OnRenderStart(ctx, "light", []string{"svg", "dot"})
	h.OnCacheSet(ctx, "artifact", 512)

	got := buf.String()
	for _, want := range []string{"extract done", "machines=2", "layout failed", "graphviz exploded", "formats=svg,dot", "bytes=512"} {
		if !strings.Contains(got, want) {
			t.Errorf("log missing %q:\n%s", want, got)
		}
	}

	buf.Reset()
	quiet := log.New(&buf)
	quiet.SetLevel(log.InfoLevel)
	NewLogHooks(quiet).OnCacheHit(ctx, "layout")
	if buf.Len() != 0 {
		t.Errorf("debug event logged at info level: %q", buf.String())
	}
}
