// Package log provides a structured logging interface for evoclass training runs.
//
// This package defines a minimal, slog-compatible logging interface that keeps
// the training engine independent of a concrete backend. The default backend is
// zerolog (see ZerologProvider); tests capture output with TestLogger.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("training").With(
//	    log.GroupIDKey, group.ID(),
//	    log.PopulationKey, 100,
//	)
//	logger.Info("generation completed",
//	    log.GenerationKey, stats.Generation,
//	    log.FitnessKey, stats.BestFitness,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. The interface supports chaining
// through With, which returns a logger whose records carry the given fields.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	// Per-generation progress is logged at this level.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// Pass the error under ErrAttrKey so backends can attach stack traces:
	//
	//	logger.Error("advance failed", log.ErrAttrKey, err)
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	// Use it to skip building expensive fields:
	//
	//	if logger.Enabled(ctx, LevelDebug) {
	//	    logger.Debug("population", "fingerprints", fingerprints(pop))
	//	}
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider defines an interface for creating and configuring loggers.
// This interface allows for dependency injection and testing with different
// logger implementations.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger with a specific name/component identifier.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for all loggers created by this provider.
	SetLevel(level Level)
}
