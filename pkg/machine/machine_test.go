package machine

import (
	"testing"

	"github.com/matzehuels/stateviz/pkg/errors"
)

func lightConfig() Config {
	return Config{
		StateConfig: StateConfig{
			ID:      "light",
			Initial: "green",
			States: []StateConfig{
				{Key: "green", On: []TransitionConfig{{Event: "TIMER", Targets: []string{"yellow"}}}},
				{Key: "yellow", On: []TransitionConfig{{Event: "TIMER", Targets: []string{"red"}}}},
				{
					Key:     "red",
					Initial: "walk",
					States: []StateConfig{
						{Key: "walk", On: []TransitionConfig{{Event: "COUNTDOWN", Targets: []string{"wait"}}}},
						{Key: "wait", On: []TransitionConfig{{Event: "COUNTDOWN", Targets: []string{"stop"}}}},
						{Key: "stop", Type: Final},
					},
					OnDone: []TransitionConfig{{Targets: []string{"#light.green"}}},
				},
			},
			On: []TransitionConfig{{Event: "POWER_OUTAGE", Targets: []string{".red"}}},
		},
	}
}

func TestNewBuildsTree(t *testing.T) {
	d, err := New(lightConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if d.ID != "light" {
		t.Errorf("ID = %q, want light", d.ID)
	}

	wantOrder := []string{"light", "light.green", "light.yellow", "light.red", "light.red.walk", "light.red.wait", "light.red.stop"}
	nodes := d.Nodes()
	if len(nodes) != len(wantOrder) {
		t.Fatalf("got %d nodes, want %d", len(nodes), len(wantOrder))
	}
	for i, n := range nodes {
		if n.ID != wantOrder[i] {
			t.Errorf("node[%d] = %q, want %q", i, n.ID, wantOrder[i])
		}
		if n.Order != i {
			t.Errorf("node %q order = %d, want %d", n.ID, n.Order, i)
		}
	}

	red, _ := d.Node("light.red")
	if red.Type != Compound {
		t.Errorf("red type = %v, want compound", red.Type)
	}
	stop, _ := d.Node("light.red.stop")
	if stop.Type != Final || stop.Depth() != 2 {
		t.Errorf("stop = %+v", stop)
	}
	if init, ok := red.InitialChild(); !ok || init.Key != "walk" {
		t.Errorf("red initial child = %v", init)
	}
}

func TestNewResolvesTargets(t *testing.T) {
	d, err := New(lightConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	byEvent := map[string]*Transition{}
	for _, tr := range d.Transitions() {
		byEvent[tr.Source+"/"+tr.Event] = tr
	}

	tests := []struct {
		key      string
		target   string
		internal bool
	}{
		{"light.green/TIMER", "light.yellow", false},
		{"light.red.walk/COUNTDOWN", "light.red.wait", false},
		{"light/POWER_OUTAGE", "light.red", true},
		{"light.red/done.state.light.red", "light.green", false},
	}
	for _, tt := range tests {
		tr, ok := byEvent[tt.key]
		if !ok {
			t.Errorf("missing transition %s", tt.key)
			continue
		}
		if len(tr.Targets) != 1 || tr.Targets[0] != tt.target {
			t.Errorf("%s targets = %v, want [%s]", tt.key, tr.Targets, tt.target)
		}
		if tr.Internal != tt.internal {
			t.Errorf("%s internal = %v, want %v", tt.key, tr.Internal, tt.internal)
		}
	}
}

func TestNewSyntheticEvents(t *testing.T) {
	d, err := New(Config{StateConfig: StateConfig{
		ID:      "m",
		Initial: "a",
		States: []StateConfig{
			{
				Key:    "a",
				Always: []TransitionConfig{{Targets: []string{"b"}, Guard: "ready"}},
				After:  []TransitionConfig{{Event: "1000", Targets: []string{"b"}}},
				Invoke: []InvokeConfig{{Src: "fetch", OnDone: []TransitionConfig{{Targets: []string{"b"}}}, OnError: []TransitionConfig{{}}}},
			},
			{Key: "b"},
		},
	}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a, _ := d.Node("m.a")
	var events []string
	for _, tr := range a.Transitions {
		events = append(events, tr.Event)
	}
	want := []string{"", "xstate.after(1000)#m.a", "done.invoke.m.a:invocation[0]", "error.platform.m.a:invocation[0]"}
	if len(events) != len(want) {
		t.Fatalf("events = %q, want %q", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, events[i], want[i])
		}
	}
	if len(a.Transitions[3].Targets) != 0 {
		t.Error("targetless transition should have no targets")
	}
	if a.Transitions[0].Guard != "ready" {
		t.Errorf("guard = %q", a.Transitions[0].Guard)
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{
			name: "unknown sibling",
			cfg: Config{StateConfig: StateConfig{ID: "m", Initial: "a", States: []StateConfig{
				{Key: "a", On: []TransitionConfig{{Event: "GO", Targets: []string{"nope"}}}},
			}}},
		},
		{
			name: "unknown id",
			cfg: Config{StateConfig: StateConfig{ID: "m", Initial: "a", States: []StateConfig{
				{Key: "a", On: []TransitionConfig{{Event: "GO", Targets: []string{"#missing"}}}},
			}}},
		},
		{
			name: "bad initial",
			cfg: Config{StateConfig: StateConfig{ID: "m", Initial: "z", States: []StateConfig{
				{Key: "a"},
			}}},
		},
		{
			name: "duplicate id",
			cfg: Config{StateConfig: StateConfig{ID: "m", Initial: "a", States: []StateConfig{
				{Key: "a", ID: "dup"},
				{Key: "b", ID: "dup"},
			}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if !errors.Is(err, errors.ErrCodeInvalidMachine) {
				t.Errorf("New() error = %v, want %s", err, errors.ErrCodeInvalidMachine)
			}
		})
	}
}

func TestDefaultID(t *testing.T) {
	d, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.ID != DefaultID || d.Root.Type != Atomic {
		t.Errorf("got id=%q type=%q", d.ID, d.Root.Type)
	}
}

func TestWithContextAndConfig(t *testing.T) {
	d, err := New(Config{StateConfig: StateConfig{ID: "m"}, Implementations: Implementations{Actions: []string{"b"}}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c := d.WithContext(map[string]any{"count": 1})
	if c == d || d.Context != nil {
		t.Error("WithContext must return a copy")
	}

	w := d.WithConfig(map[string]any{
		"actions": map[string]any{"a": nil, "b": nil},
		"guards":  map[string]any{"g": nil},
	})
	if got := w.Implementations.Actions; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("actions = %v", got)
	}
	if got := w.Implementations.Guards; len(got) != 1 || got[0] != "g" {
		t.Errorf("guards = %v", got)
	}
	if len(d.Implementations.Actions) != 1 {
		t.Error("WithConfig mutated the original")
	}
}
