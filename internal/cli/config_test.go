package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/stateviz/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[sandbox]
timeout = "2s"
strict = true

[layout]
rankdir = "LR"
routing = false

[render]
formats = ["svg", "dot"]

[render.theme]
active = "rgb(255,99,71)"

[cache]
dir = "/tmp/stateviz-test"

[cache.redis]
addr = "localhost:6379"
db = 2

[server]
addr = ":9090"
max_body_bytes = 4096
request_timeout = "10s"

[log]
format = "logfmt"
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Format != "logfmt" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Sandbox.Timeout.Duration != 2*time.Second || !cfg.Sandbox.Strict {
		t.Errorf("sandbox = %+v", cfg.Sandbox)
	}
	if cfg.Layout.RankDir != "LR" || cfg.Layout.Routing == nil || *cfg.Layout.Routing {
		t.Errorf("layout = %+v", cfg.Layout)
	}
	if len(cfg.Render.Formats) != 2 || cfg.Render.Theme.Active != "rgb(255,99,71)" {
		t.Errorf("render = %+v", cfg.Render)
	}
	if cfg.Cache.Redis.Addr != "localhost:6379" || cfg.Cache.Redis.DB != 2 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.MaxBodyBytes != 4096 || cfg.Server.RequestTimeout.Duration != 10*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}

	opts := cfg.pipelineOptions()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.RoutingEnabled() {
		t.Error("routing should be disabled by the config")
	}
	if !strings.HasPrefix(opts.Theme.Active, "#") {
		t.Errorf("theme active = %q, want normalized hex", opts.Theme.Active)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "[layout]\ndirection = \"LR\"\n"},
		{"bad duration", "[sandbox]\ntimeout = \"soon\"\n"},
		{"syntax", "[layout\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadConfig(writeConfig(t, tt.content)); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("err = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestLoadConfigMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	// The default location may be absent.
	cfg, err := loadConfig("")
	if err != nil || cfg == nil {
		t.Fatalf("loadConfig(\"\") = %v, %v", cfg, err)
	}

	// An explicit path must exist.
	_, err = loadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestRootRejectsUnknownLogFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[log]\nformat = \"xml\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", path, "cache", "path"})
	if err := root.Execute(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}
