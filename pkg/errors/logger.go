package errors

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/JamesPrial/scene-namer/pkg/logging"
)

// Logger provides centralized error logging
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a new error logger using the global logging factory
func NewLogger(component string) *Logger {
	return &Logger{
		logger: logging.GetGlobalLogger(component),
	}
}

// NewLoggerWithSlog creates a new error logger with a specific slog logger
func NewLoggerWithSlog(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

// LogError logs an error with its code and operation and returns an error that is safe to show the user
func (l *Logger) LogError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("error_type", fmt.Sprintf("%T", err)),
	}
	if opID := logging.GetOperationID(ctx); opID != "" {
		attrs = append(attrs, slog.String("operation_id", opID))
	}

	appErr, ok := err.(*AppError)
	if !ok {
		attrs = append(attrs,
			slog.String("error", err.Error()),
			slog.String("error_code", string(ErrCodeInternal)),
		)
		l.logger.LogAttrs(ctx, slog.LevelError, "Unexpected error occurred", attrs...)
		return Internal(err)
	}

	attrs = append(attrs,
		slog.String("error_code", string(appErr.Code)),
		slog.String("error_message", appErr.Message),
	)
	if appErr.Internal != nil {
		attrs = append(attrs, slog.String("internal_error", appErr.Internal.Error()))
	}
	if appErr.Details != nil {
		attrs = append(attrs, slog.Any("error_details", appErr.Details))
	}

	l.logger.LogAttrs(ctx, l.getLogLevel(appErr.Code), "Application error occurred", attrs...)
	return appErr
}

// LogPanic logs a recovered panic and returns a safe error
func (l *Logger) LogPanic(ctx context.Context, recovered interface{}, operation string) error {
	l.logger.LogAttrs(ctx, slog.LevelError, "Panic recovered",
		slog.String("operation", operation),
		slog.String("error_code", string(ErrCodePanic)),
		slog.Any("panic_value", recovered),
	)
	return Newf(ErrCodePanic, "An unexpected error occurred during %s", operation)
}

// getLogLevel determines the appropriate log level for an error code
func (l *Logger) getLogLevel(code ErrorCode) slog.Level {
	switch {
	case code == ErrCodeEmptySelection || code == ErrCodeUnknownAction:
		return slog.LevelInfo
	case strings.HasPrefix(string(code), "VALIDATION_"):
		return slog.LevelWarn
	case code == ErrCodeWriteRejected || code == ErrCodeSuffixSearchExhausted:
		return slog.LevelWarn
	case code == ErrCodeEntityNotFound:
		return slog.LevelInfo
	case strings.HasPrefix(string(code), "STORAGE_"):
		return slog.LevelError
	case code == ErrCodeInternal || code == ErrCodePanic:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

var (
	defaultLogger     *Logger
	defaultLoggerOnce sync.Once
	defaultLoggerMu   sync.RWMutex
)

func getDefaultLogger() *Logger {
	defaultLoggerOnce.Do(func() {
		defaultLoggerMu.Lock()
		defer defaultLoggerMu.Unlock()
		if defaultLogger == nil {
			defaultLogger = NewLogger("errors")
		}
	})
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger sets the default error logger
func SetDefaultLogger(logger *slog.Logger) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = NewLoggerWithSlog(logger)
}

// LogError logs an error using the default logger
func LogError(ctx context.Context, err error, operation string) error {
	return getDefaultLogger().LogError(ctx, err, operation)
}

// LogPanic logs a panic using the default logger
func LogPanic(ctx context.Context, recovered interface{}, operation string) error {
	return getDefaultLogger().LogPanic(ctx, recovered, operation)
}
