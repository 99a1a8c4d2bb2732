package machine

import "sort"

// NodeType is the kind of a state node.
type NodeType string

// State node kinds.
const (
	Atomic   NodeType = "atomic"
	Compound NodeType = "compound"
	Parallel NodeType = "parallel"
	Final    NodeType = "final"
	History  NodeType = "history"
)

// Config is the root configuration of a machine.
type Config struct {
	StateConfig

	// Context is the initial extended state. It is carried, never read.
	Context any

	// Implementations names the actions, guards, services and delays
	// supplied alongside the configuration.
	Implementations Implementations
}

// StateConfig configures one state node. Slices preserve authoring order.
type StateConfig struct {
	Key         string
	ID          string
	Type        NodeType
	Initial     string
	History     string // "shallow" or "deep" for history nodes
	Target      string // default target of a history node
	States      []StateConfig
	On          []TransitionConfig
	Always      []TransitionConfig
	After       []TransitionConfig // Event holds the delay
	OnDone      []TransitionConfig
	Invoke      []InvokeConfig
	Entry       []string
	Exit        []string
	Tags        []string
	Description string
	Meta        map[string]any
}

// TransitionConfig configures one candidate transition for an event.
type TransitionConfig struct {
	Event       string
	Targets     []string
	Guard       string
	Actions     []string
	Internal    bool
	Description string
}

// InvokeConfig configures an invoked service.
type InvokeConfig struct {
	ID      string
	Src     string
	OnDone  []TransitionConfig
	OnError []TransitionConfig
}

// Implementations lists the names of implementations provided for a machine.
type Implementations struct {
	Actions  []string `json:"actions,omitempty"`
	Guards   []string `json:"guards,omitempty"`
	Services []string `json:"services,omitempty"`
	Delays   []string `json:"delays,omitempty"`
}

// ImplementationsFromMap reads implementation names from an options object
// shaped like {actions: {...}, guards: {...}, services: {...}, delays: {...}}.
// Names are sorted so the result does not depend on map iteration order.
func ImplementationsFromMap(m map[string]any) Implementations {
	return Implementations{
		Actions:  sortedKeys(m["actions"]),
		Guards:   sortedKeys(m["guards"]),
		Services: sortedKeys(m["services"]),
		Delays:   sortedKeys(m["delays"]),
	}
}

// Merge returns the union of i and o.
func (i Implementations) Merge(o Implementations) Implementations {
	return Implementations{
		Actions:  mergeNames(i.Actions, o.Actions),
		Guards:   mergeNames(i.Guards, o.Guards),
		Services: mergeNames(i.Services, o.Services),
		Delays:   mergeNames(i.Delays, o.Delays),
	}
}

func sortedKeys(v any) []string {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func mergeNames(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
