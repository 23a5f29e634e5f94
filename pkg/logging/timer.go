package logging

import (
	"context"
	"log/slog"
	"time"
)

// OperationTimer logs the start and end of an operation with its duration
type OperationTimer struct {
	logger    *slog.Logger
	operation string
	startTime time.Time
	ctx       context.Context
}

// StartTimer logs the start of operation at debug level and returns a timer
func StartTimer(ctx context.Context, logger *slog.Logger, operation string) *OperationTimer {
	ctx = NewOperationContext(ctx, operation)

	timer := &OperationTimer{
		logger:    logger,
		operation: operation,
		startTime: time.Now(),
		ctx:       ctx,
	}

	logger.DebugContext(ctx, "Operation started",
		slog.String("operation", operation),
		slog.String("operation_id", GetOperationID(ctx)),
	)

	return timer
}

// End completes the timer and logs the duration
func (t *OperationTimer) End() time.Duration {
	duration := time.Since(t.startTime)

	t.logger.DebugContext(t.ctx, "Operation completed",
		slog.String("operation", t.operation),
		slog.String("operation_id", GetOperationID(t.ctx)),
		slog.Duration("duration", duration),
	)

	return duration
}

// EndWithError completes the timer and logs the duration with an error
func (t *OperationTimer) EndWithError(err error) time.Duration {
	if err == nil {
		return t.End()
	}

	duration := time.Since(t.startTime)

	t.logger.WarnContext(t.ctx, "Operation failed",
		slog.String("operation", t.operation),
		slog.String("operation_id", GetOperationID(t.ctx)),
		slog.Duration("duration", duration),
		slog.String("error", err.Error()),
	)

	return duration
}

// Context returns the operation-tagged context created by StartTimer
func (t *OperationTimer) Context() context.Context {
	return t.ctx
}
