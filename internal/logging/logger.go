// Package logging builds the structured stderr logger. Stdout is reserved for
// the single JSON result of an invocation.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a production JSON logger writing to stderr at the given level.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// WithOperation enriches the logger with operation and invocation identifiers.
func WithOperation(logger *zap.Logger, operation, invocationID string) *zap.Logger {
	fields := []zap.Field{zap.String("operation", operation)}
	if invocationID != "" {
		fields = append(fields, zap.String("invocation_id", invocationID))
	}
	return logger.With(fields...)
}
