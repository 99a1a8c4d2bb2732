// Package xstate binds the statechart authoring library into a goja runtime.
//
// Scripts author machines with the familiar factory API:
//
//	const { createMachine, assign } = require('xstate');
//	const toggle = createMachine({
//	  id: 'toggle',
//	  initial: 'inactive',
//	  states: {
//	    inactive: { on: { TOGGLE: 'active' } },
//	    active: { on: { TOGGLE: 'inactive' } },
//	  },
//	});
//
// A [Library] produces the exports of three modules for one runtime:
// [Library.Core] ("xstate"), [Library.Actions] ("xstate/lib/actions") and
// [Library.Model] ("xstate/lib/model"). Machine factories return the built
// *machine.Definition wrapped as a script value; its fields are visible under
// their JSON names (machine.id, machine.initial, ...).
//
// The package does not decide which modules a script may load. That policy,
// and capturing the machines a script builds, belongs to pkg/sandbox.
package xstate
