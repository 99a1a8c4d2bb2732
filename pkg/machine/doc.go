// Package machine models statechart definitions.
//
// A [Definition] is built from an ordered [Config] tree with [New]. Building
// resolves every transition target and assigns each state node a stable
// document-order index ([StateNode.Order]), which downstream packages use to
// derive identifiers for rendering.
//
// The package is engine-agnostic. Script bindings that turn evaluated script
// values into a Config live in pkg/xstate.
//
// # Target Syntax
//
// Transition targets follow the statechart conventions of the authoring
// library:
//
//	"green"        sibling of the source state
//	"green.walk"   descendant of a sibling
//	".walk"        child of the source state
//	"#light.red"   state with the given ID
//
// A transition without targets is a self-transition that does not leave the
// source state.
package machine
