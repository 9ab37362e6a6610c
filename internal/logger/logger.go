// Package logger is the process-wide structured logger used by the crawler,
// the fetcher and the CLI. Crawl state changes and skipped pages go to
// Debug, one line per stored page goes to Info.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

func init() {
	Init(Options{})
}

// Options configures the logger.
type Options struct {
	Debug  bool         // include crawler state transitions and skipped pages
	Quiet  bool         // errors only; wins over Debug
	JSON   bool         // JSON lines instead of key=value text
	Output io.Writer    // default stderr
	Logger *slog.Logger // use as-is, ignoring the fields above
}

// Init replaces the package logger according to opts.
func Init(opts Options) {
	if opts.Logger != nil {
		SetLogger(opts.Logger)
		return
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: level(opts)}

	var h slog.Handler = slog.NewTextHandler(out, handlerOpts)
	if opts.JSON {
		h = slog.NewJSONHandler(out, handlerOpts)
	}
	SetLogger(slog.New(h))
}

func level(opts Options) slog.Level {
	switch {
	case opts.Quiet:
		return slog.LevelError
	case opts.Debug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// SetLogger routes all package logging through l, e.g. an embedding
// application's handler.
func SetLogger(l *slog.Logger) {
	current.Store(l)
}

// Enabled reports whether records at lvl would be emitted.
func Enabled(lvl slog.Level) bool {
	return current.Load().Enabled(context.Background(), lvl)
}

func Debug(msg string, args ...any) { current.Load().Debug(msg, args...) }
func Info(msg string, args ...any)  { current.Load().Info(msg, args...) }
func Warn(msg string, args ...any)  { current.Load().Warn(msg, args...) }
func Error(msg string, args ...any) { current.Load().Error(msg, args...) }

// With returns the current logger with attrs attached.
func With(args ...any) *slog.Logger {
	return current.Load().With(args...)
}
