package observability

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes pipeline and cache events to a logger at debug level.
// Failures are logged at warn level.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to l, or to log.Default when l is nil.
func NewLogHooks(l *log.Logger) *LogHooks {
	if l == nil {
		l = log.Default()
	}
	return &LogHooks{logger: l.WithPrefix("pipeline")}
}

func (h *LogHooks) done(stage string, d time.Duration, err error, keyvals ...any) {
	keyvals = append(keyvals, "took", d.Round(time.Microsecond))
	if err != nil {
		h.logger.Warn(stage+" failed", append(keyvals, "error", err)...)
		return
	}
	h.logger.Debug(stage+" done", keyvals...)
}

func (h *LogHooks) OnExtractStart(_ context.Context, scriptSize int) {
	h.logger.Debug("extract", "bytes", scriptSize)
}

func (h *LogHooks) OnExtractComplete(_ context.Context, machines int, d time.Duration, err error) {
	h.done("extract", d, err, "machines", machines)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, machineID string, nodeCount int) {
	h.logger.Debug("layout", "machine", machineID, "states", nodeCount)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, machineID string, d time.Duration, err error) {
	h.done("layout", d, err, "machine", machineID)
}

func (h *LogHooks) OnRenderStart(_ context.Context, machineID string, formats []string) {
	h.logger.Debug("render", "machine", machineID, "formats", strings.Join(formats, ","))
}

func (h *LogHooks) OnRenderComplete(_ context.Context, machineID string, pending int, d time.Duration, err error) {
	h.done("render", d, err, "machine", machineID, "pending", pending)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "kind", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "kind", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "kind", keyType, "bytes", size)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
)
