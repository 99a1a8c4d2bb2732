package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFill(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	}

	got := fill(Info{Version: "dev", Commit: "none", Date: "unknown"}, bi)
	if got.Version != "v0.3.1" || got.Commit != "abc123" || got.Date != "2026-01-02T03:04:05Z" {
		t.Errorf("fill = %+v", got)
	}

	stamped := fill(Info{Version: "v1.0.0", Commit: "def", Date: "today"}, bi)
	if stamped.Version != "v1.0.0" || stamped.Commit != "def" || stamped.Date != "today" {
		t.Errorf("ldflags values should win, got %+v", stamped)
	}

	devel := fill(Info{Version: "dev"}, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	if devel.Version != "dev" {
		t.Errorf("version = %q", devel.Version)
	}
}

func TestTemplate(t *testing.T) {
	if tmpl := Template(); !strings.HasPrefix(tmpl, "{{.Name}} version ") {
		t.Errorf("Template = %q", tmpl)
	}
	if Get().GoVersion == "" {
		t.Error("GoVersion empty")
	}
}
