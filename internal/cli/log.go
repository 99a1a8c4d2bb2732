// Package cli implements the stateviz command line: extract, render, serve
// and cache, on top of cobra.
//
// Commands share one charm logger, attached to the command context before
// any subcommand runs. Script console output and pipeline warnings go
// through it; "-v" lowers the level to debug and logs every pipeline stage.
// The [log] config section picks text, json or logfmt output, the latter two
// being meant for "stateviz serve" behind a log collector.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stateviz/pkg/errors"
)

// Log formats accepted by the [log] config section.
const (
	logFormatText   = "text"
	logFormatJSON   = "json"
	logFormatLogfmt = "logfmt"
)

// newLogger returns a text logger with short timestamps ("14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// setLogFormat switches l to format. Machine formats use RFC 3339 times.
func setLogFormat(l *log.Logger, format string) error {
	switch format {
	case "", logFormatText:
		return nil
	case logFormatJSON:
		l.SetFormatter(log.JSONFormatter)
	case logFormatLogfmt:
		l.SetFormatter(log.LogfmtFormatter)
	default:
		return errors.New(errors.ErrCodeInvalidInput, "invalid log format: %q (must be text, json or logfmt)", format)
	}
	l.SetTimeFormat(time.RFC3339)
	return nil
}

// progress logs how long a step took when it finishes.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs "msg (elapsed)" at info level.
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the command logger, or log.Default outside a
// command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
