// Package logger wraps log/slog with the small nil-safe, leveled helper
// shape used throughout this repo's layers.
package logger

import (
	"context"
	"log/slog"
)

// Trace sits below slog's lowest built-in level; used for high-volume,
// per-tick bookkeeping that is rarely worth looking at.
const Trace slog.Level = slog.LevelDebug - 4

// LogAttrs logs msg at level through l if l is non-nil. Every layer in this
// repo calls through this helper instead of *slog.Logger directly so that a
// nil logger (the zero value of L) is always safe to use.
func LogAttrs(l *slog.Logger, level slog.Level, msg string, attrs ...slog.Attr) {
	if l != nil {
		l.LogAttrs(context.Background(), level, msg, attrs...)
	}
}

// L is an embeddable, nil-safe leveled logger. The zero value discards
// everything.
type L struct {
	Log *slog.Logger
}

func (l L) Trace(msg string, attrs ...slog.Attr) { LogAttrs(l.Log, Trace, msg, attrs...) }
func (l L) Debug(msg string, attrs ...slog.Attr) { LogAttrs(l.Log, slog.LevelDebug, msg, attrs...) }
func (l L) Info(msg string, attrs ...slog.Attr)  { LogAttrs(l.Log, slog.LevelInfo, msg, attrs...) }
func (l L) Warn(msg string, attrs ...slog.Attr)  { LogAttrs(l.Log, slog.LevelWarn, msg, attrs...) }
func (l L) Error(msg string, attrs ...slog.Attr) { LogAttrs(l.Log, slog.LevelError, msg, attrs...) }
