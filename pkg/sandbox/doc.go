// Package sandbox evaluates untrusted statechart scripts and recovers the
// machine definitions they build.
//
// Every call to [Evaluator.Extract] gets a fresh JavaScript runtime with a
// deliberately small capability surface:
//
//   - require(path) resolves only [ModuleCore], [ModuleActions] and
//     [ModuleModel]. Any other path aborts evaluation with a
//     *errors.ModuleError naming the path.
//   - exports and module.exports accept anything and are never read.
//   - console.error/info/log/warn forward to the evaluator's logger.
//
// The machine factories of the core module (createMachine and Machine) and
// the createMachine method of models are replaced by capturing wrappers. A
// wrapper calls the real factory with the same arguments, records the result
// and returns it unchanged, so the script cannot tell the difference.
// Definitions are returned in the order the factories were called.
//
// Evaluation is all-or-nothing: on a parse error, a disallowed import, an
// uncaught exception, a timeout or a cancelled context no definitions are
// returned.
//
// # Usage
//
//	defs, err := sandbox.Extract(ctx, src)
//	if errors.Is(err, errors.ErrCodeModuleNotAllowed) {
//	    // script imported something other than the authoring library
//	}
package sandbox
