package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stateviz/pkg/observability"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level log.Level
		emit  func(*log.Logger)
		want  bool
	}{
		{log.InfoLevel, func(l *log.Logger) { l.Info("x") }, true},
		{log.InfoLevel, func(l *log.Logger) { l.Debug("x") }, false},
		{log.DebugLevel, func(l *log.Logger) { l.Debug("x") }, true},
		{log.WarnLevel, func(l *log.Logger) { l.Info("x") }, false},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		tt.emit(newLogger(&buf, tt.level))
		if got := buf.Len() > 0; got != tt.want {
			t.Errorf("level %v: wrote = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(newLogger(&buf, log.InfoLevel))
	p.start = p.start.Add(-1500 * time.Millisecond)
	p.done("Extracted 2 machines")

	if !strings.Contains(buf.String(), "Extracted 2 machines (1.5") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestLoggerContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("want log.Default without an attached logger")
	}
	l := newLogger(&bytes.Buffer{}, log.InfoLevel)
	if loggerFromContext(withLogger(context.Background(), l)) != l {
		t.Error("attached logger not returned")
	}
}

// Script console output and unreachable-state warnings reach the CLI logger.
func TestScriptLogging(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	script := filepath.Join(t.TempDir(), "m.js")
	src := `const { createMachine } = require('xstate');
console.warn('building', 'door');
createMachine({ id: 'door', initial: 'closed', states: { closed: {}, open: {} } });`
	if err := os.WriteFile(script, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	var logs bytes.Buffer
	c := New(&logs, LogInfo)
	root := c.RootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"extract", script})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}

	got := logs.String()
	for _, want := range []string{"building door", "unreachable states", "door.open"} {
		if !strings.Contains(got, want) {
			t.Errorf("logs missing %q:\n%s", want, got)
		}
	}
}

func TestDebugInstallsLogHooks(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Cleanup(observability.Reset)

	var logs bytes.Buffer
	c := New(&logs, LogDebug)
	root := c.RootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetIn(strings.NewReader(`require('xstate').createMachine({ id: 'a' });`))
	root.SetArgs([]string{"extract", "-"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(logs.String(), "extract done") {
		t.Errorf("pipeline events not logged:\n%s", logs.String())
	}
}

func TestSetLogFormat(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"", "level=INFO"},
		{"json", `"msg":"rendered"`},
		{"logfmt", "msg=rendered"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		l := newLogger(&buf, log.InfoLevel)
		if err := setLogFormat(l, tt.format); err != nil {
			t.Fatal(err)
		}
		l.Info("rendered", "machine", "light")
		got := buf.String()
		if tt.format == "" {
			if strings.Contains(got, tt.want) || !strings.Contains(got, "rendered") {
				t.Errorf("text output = %q", got)
			}
			continue
		}
		if !strings.Contains(got, tt.want) {
			t.Errorf("%s output = %q, want %q", tt.format, got, tt.want)
		}
	}

	if err := setLogFormat(log.Default(), "xml"); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestVerbosityFlags(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	tests := []struct {
		args    []string
		want    log.Level
		wantErr bool
	}{
		{[]string{"cache", "path"}, LogInfo, false},
		{[]string{"-v", "cache", "path"}, LogDebug, false},
		{[]string{"--quiet", "cache", "path"}, LogWarn, false},
		{[]string{"-v", "-q", "cache", "path"}, LogInfo, true},
	}
	for _, tt := range tests {
		c := New(&bytes.Buffer{}, LogInfo)
		root := c.RootCommand()
		root.SetOut(&bytes.Buffer{})
		root.SetArgs(tt.args)
		err := root.Execute()
		observability.Reset()
		if (err != nil) != tt.wantErr {
			t.Errorf("%v: err = %v", tt.args, err)
			continue
		}
		if got := c.Logger.GetLevel(); got != tt.want {
			t.Errorf("%v: level = %v, want %v", tt.args, got, tt.want)
		}
	}
}
