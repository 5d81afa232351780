package postfx

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/postfx/internal/gpu"
	"github.com/gogpu/postfx/surface"
)

// nopHandler drops every record. Enabled reports false so attributes are
// never evaluated.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger sets the logger for postfx, its GPU resource layer and the
// surface package. postfx is silent until this is called; nil silences it
// again. Safe for concurrent use.
//
// Levels:
//   - [slog.LevelDebug]: per-frame details (dispatch size, texture creation)
//   - [slog.LevelInfo]: lifecycle events (startup, resize applied, close)
//   - [slog.LevelWarn]: recoverable failures (skipped frame, refused resize)
//
// Example:
//
//	postfx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	gpu.SetLogger(l)
	surface.SetLogger(l)
}

// Logger returns the logger set by SetLogger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
