package logging

import (
	"context"
	"log/slog"
)

// LevelHandler drops records below a fixed minimum level before delegating.
// The factory wraps each component logger with one so that component levels
// can be stricter or looser than the global level.
type LevelHandler struct {
	handler slog.Handler
	level   slog.Leveler
}

// NewLevelHandler creates a new level handler
func NewLevelHandler(handler slog.Handler, level slog.Leveler) *LevelHandler {
	// Avoid stacking level handlers
	if lh, ok := handler.(*LevelHandler); ok {
		handler = lh.handler
	}
	return &LevelHandler{handler: handler, level: level}
}

// Enabled implements slog.Handler
func (lh *LevelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level < lh.level.Level() {
		return false
	}
	return lh.handler.Enabled(ctx, level)
}

// Handle implements slog.Handler
func (lh *LevelHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < lh.level.Level() {
		return nil
	}
	return lh.handler.Handle(ctx, record)
}

// WithAttrs implements slog.Handler
func (lh *LevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LevelHandler{handler: lh.handler.WithAttrs(attrs), level: lh.level}
}

// WithGroup implements slog.Handler
func (lh *LevelHandler) WithGroup(name string) slog.Handler {
	return &LevelHandler{handler: lh.handler.WithGroup(name), level: lh.level}
}

// Handler returns the wrapped handler
func (lh *LevelHandler) Handler() slog.Handler {
	return lh.handler
}

// ToSlogLevel converts our LogLevel to slog.Level
func ToSlogLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
