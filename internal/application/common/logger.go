package common

import "context"

// EngineLogger receives job lifecycle events and diagnostics. The daemon
// installs a database-backed implementation so job history is queryable;
// tests install a capturing one.
type EngineLogger interface {
	Log(level, message string, metadata map[string]interface{})
}

// Log levels used across the engine
const (
	LogLevelDebug = "DEBUG"
	LogLevelInfo  = "INFO"
	LogLevelWarn  = "WARN"
	LogLevelError = "ERROR"
)

// Context keys for passing logger through context
type contextKey int

const (
	loggerKey contextKey = iota
)

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger EngineLogger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext extracts the logger from context, or returns a no-op logger if not found
func LoggerFromContext(ctx context.Context) EngineLogger {
	if logger, ok := ctx.Value(loggerKey).(EngineLogger); ok {
		return logger
	}
	return &noOpLogger{}
}

type noOpLogger struct{}

func (l *noOpLogger) Log(level, message string, metadata map[string]interface{}) {}
