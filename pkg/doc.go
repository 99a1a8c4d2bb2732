// Package pkg provides the core libraries for stateviz statechart visualization.
//
// # Overview
//
// stateviz evaluates statechart scripts in a sandbox, captures every machine
// they define and draws each one as a laid-out transition graph. The pkg
// directory is organized into four areas:
//
//  1. Evaluation - [sandbox] runs scripts, [xstate] is the library they
//     import and [machine] holds the captured definitions
//  2. Graphs - [graph] flattens a definition into states and transitions
//  3. Drawing - [layout] places states with Graphviz, [geometry] routes
//     edges and [render] writes SVG
//  4. Orchestration - [pipeline] runs extract → layout → render with
//     [cache] and reports through [observability]
//
// # Architecture
//
//	script source
//	     ↓
//	[sandbox] (evaluate, capture machines)
//	     ↓
//	[graph] (states, transitions, unreachable states)
//	     ↓
//	[layout] (Graphviz positions and edge routes)
//	     ↓
//	[render] (SVG, JSON or DOT)
//
// # Quick Start
//
//	defs, _ := sandbox.Extract(ctx, source)
//	g := graph.FromMachine(defs[0])
//
//	l, _ := layout.Compute(ctx, g, layout.Options{RankDir: "LR", Routing: true})
//	l.Apply(g)
//
//	res, _ := render.SVG(g, l, render.Options{Theme: render.DefaultTheme()})
//	os.WriteFile("machine.svg", res.SVG, 0o644)
//
// The [pipeline] package wraps these steps with caching and per-machine
// concurrency; the CLI and the HTTP API both go through it.
//
// [buildinfo] reports the binary version and [errors] defines the error codes
// shared by every layer.
package pkg
