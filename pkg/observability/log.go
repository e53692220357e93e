package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug-level log
// lines. Failures are logged at warn level.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log through logger, or log.Default() if
// logger is nil.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger.WithPrefix("obs")}
}

// Install registers h for every hook category.
func (h *LogHooks) Install() {
	SetPlacementHooks(h)
	SetResolutionHooks(h)
	SetTutorHooks(h)
	SetCacheHooks(h)
}

func (h *LogHooks) OnPlaced(_ context.Context, id, hint string, x, y float64) {
	h.logger.Debug("annotation placed", "id", id, "hint", hint, "x", x, "y", y)
}

func (h *LogHooks) OnPass(_ context.Context, pending, placed int, d time.Duration) {
	h.logger.Debug("placement pass", "pending", pending, "placed", placed, "took", d)
}

func (h *LogHooks) OnApprove(_ context.Context, id, kind string, err error) {
	if err != nil {
		h.logger.Warn("approve failed", "id", id, "kind", kind, "err", err)
		return
	}
	h.logger.Debug("annotation approved", "id", id, "kind", kind)
}

func (h *LogHooks) OnDismiss(_ context.Context, id string, removed bool) {
	h.logger.Debug("annotation dismissed", "id", id, "removed", removed)
}

func (h *LogHooks) OnTurnStart(_ context.Context, engine string, messages int) {
	h.logger.Debug("tutor turn", "engine", engine, "messages", messages)
}

func (h *LogHooks) OnTurnComplete(_ context.Context, engine string, proposals int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("tutor turn failed", "engine", engine, "took", d, "err", err)
		return
	}
	h.logger.Debug("tutor turn done", "engine", engine, "proposals", proposals, "took", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}
