package logging

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Context keys for logging metadata
type contextKey string

const (
	contextKeyOperationID contextKey = "operation_id"
	contextKeyOperation   contextKey = "operation"
)

// WithOperationID adds an operation ID to the context
func WithOperationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyOperationID, id)
}

// GetOperationID retrieves the operation ID from context
func GetOperationID(ctx context.Context) string {
	if val, ok := ctx.Value(contextKeyOperationID).(string); ok {
		return val
	}
	return ""
}

// WithOperation adds an operation name to the context
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, contextKeyOperation, operation)
}

// GetOperation retrieves the operation name from context
func GetOperation(ctx context.Context) string {
	if val, ok := ctx.Value(contextKeyOperation).(string); ok {
		return val
	}
	return ""
}

// NewOperationContext tags ctx with operation and a fresh operation ID,
// keeping an ID that is already present.
func NewOperationContext(ctx context.Context, operation string) context.Context {
	if GetOperationID(ctx) == "" {
		ctx = WithOperationID(ctx, uuid.New().String())
	}
	if operation != "" {
		ctx = WithOperation(ctx, operation)
	}
	return ctx
}

// WithContextAttrs returns logger with the operation metadata from ctx attached
func WithContextAttrs(ctx context.Context, logger *slog.Logger) *slog.Logger {
	var args []any
	if id := GetOperationID(ctx); id != "" {
		args = append(args, slog.String("operation_id", id))
	}
	if op := GetOperation(ctx); op != "" {
		args = append(args, slog.String("operation", op))
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}
