package sandbox

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dop251/goja"

	"github.com/matzehuels/stateviz/pkg/errors"
	"github.com/matzehuels/stateviz/pkg/machine"
	"github.com/matzehuels/stateviz/pkg/xstate"
)

// Importable module paths.
const (
	ModuleCore    = xstate.CorePath
	ModuleActions = xstate.ActionsPath
	ModuleModel   = xstate.ModelPath
)

// DefaultTimeout bounds a single evaluation unless overridden.
const DefaultTimeout = 5 * time.Second

// scriptName is the file name reported in parse errors and stack traces.
const scriptName = "machine.js"

// Evaluator extracts machine definitions from script text. It holds only
// configuration and is safe for concurrent use.
type Evaluator struct {
	logger  *log.Logger
	timeout time.Duration
	strict  bool
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger that receives the script's console output.
func WithLogger(l *log.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTimeout sets the wall-clock budget of one evaluation. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(e *Evaluator) { e.timeout = d }
}

// WithStrict compiles scripts in strict mode.
func WithStrict(strict bool) Option {
	return func(e *Evaluator) { e.strict = strict }
}

// New creates an evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		logger:  log.Default(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEvaluator = New()

// Extract evaluates source with the default evaluator.
func Extract(ctx context.Context, source string) ([]*machine.Definition, error) {
	return defaultEvaluator.Extract(ctx, source)
}

// Interrupt values. They travel through Runtime.Interrupt and come back as
// the value of the resulting *goja.InterruptedError.
type (
	timeoutSignal struct{}
	cancelSignal  struct{}
)

// Extract evaluates source and returns every machine definition it built,
// in construction order.
func (e *Evaluator) Extract(ctx context.Context, source string) ([]*machine.Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prog, err := goja.Compile(scriptName, source, e.strict)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "parse script")
	}

	start := time.Now()
	rt := goja.New()
	captured := &capture{}
	if err := e.install(rt, captured); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "prepare sandbox")
	}

	if e.timeout > 0 {
		timer := time.AfterFunc(e.timeout, func() { rt.Interrupt(timeoutSignal{}) })
		defer timer.Stop()
	}
	stop := context.AfterFunc(ctx, func() { rt.Interrupt(cancelSignal{}) })
	defer stop()

	_, err = rt.RunProgram(prog)
	if err != nil {
		err = e.classify(ctx, captured, err)
		e.logger.Debug("script failed", "error", err, "duration", time.Since(start))
		return nil, err
	}
	if captured.err != nil {
		return nil, captured.err
	}

	e.logger.Debug("script evaluated", "machines", len(captured.defs), "duration", time.Since(start))
	if captured.defs == nil {
		return []*machine.Definition{}, nil
	}
	return captured.defs, nil
}

// classify maps an evaluation failure onto the sandbox error kinds.
func (e *Evaluator) classify(ctx context.Context, captured *capture, err error) error {
	if captured.err != nil {
		return captured.err
	}

	var ie *goja.InterruptedError
	if stderrors.As(err, &ie) {
		switch ie.Value().(type) {
		case timeoutSignal:
			return errors.New(errors.ErrCodeTimeout, "script exceeded its %s budget", e.timeout)
		case cancelSignal:
			if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
				return errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "script interrupted")
			}
			return fmt.Errorf("evaluate script: %w", ctx.Err())
		}
		return errors.Wrap(errors.ErrCodeInternal, err, "script interrupted")
	}

	var ex *goja.Exception
	if stderrors.As(err, &ex) {
		code := errors.ErrCodeScriptRuntime
		if errors.GetCode(ex) == errors.ErrCodeInvalidMachine {
			code = errors.ErrCodeInvalidMachine
		}
		return errors.Wrap(code, ex, "script threw")
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "evaluate script")
}

// install sets the globals a script may use.
func (e *Evaluator) install(rt *goja.Runtime, captured *capture) error {
	exports := rt.NewObject()
	module := rt.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return err
	}

	globals := map[string]any{
		"exports": exports,
		"module":  module,
		"require": newRequire(rt, captured, providers()),
		"console": newConsole(rt, e.logger.WithPrefix("script")),
	}
	for name, v := range globals {
		if err := rt.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}
