package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/matzehuels/stateviz/pkg/buildinfo"
	"github.com/matzehuels/stateviz/pkg/cache"
)

func TestNewServerRunnerRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	var logs bytes.Buffer
	c := New(&logs, LogInfo)
	c.Config.Cache.Redis.Prefix = "test:"

	runner, err := c.newServerRunner(context.Background(), serveOpts{redisAddr: mr.Addr()})
	if err != nil {
		t.Fatal(err)
	}
	defer runner.Close()

	if _, ok := runner.Cache.(*cache.RedisCache); !ok {
		t.Fatalf("cache = %T, want *cache.RedisCache", runner.Cache)
	}
	key := runner.Keyer.LayoutKey("abc", cache.LayoutKeyOpts{RankDir: "TB"})
	if !strings.HasPrefix(key, buildinfo.Get().Version+":") {
		t.Errorf("key %q not scoped by version", key)
	}

	if err := runner.Cache.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("test:k") {
		t.Errorf("keys = %v, want test:k", mr.Keys())
	}
}

func TestNewServerRunnerFallback(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	var logs bytes.Buffer
	c := New(&logs, LogInfo)

	runner, err := c.newServerRunner(context.Background(), serveOpts{})
	if err != nil {
		t.Fatal(err)
	}
	defer runner.Close()
	if _, ok := runner.Cache.(*cache.FileCache); !ok {
		t.Errorf("cache = %T, want *cache.FileCache", runner.Cache)
	}
}

func TestDisplayAddr(t *testing.T) {
	if got := displayAddr(":8080"); got != "localhost:8080" {
		t.Errorf("got %q", got)
	}
	if got := displayAddr("0.0.0.0:80"); got != "0.0.0.0:80" {
		t.Errorf("got %q", got)
	}
}
