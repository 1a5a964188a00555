// Package logger provides structured logging for the docvault engine
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with docvault-specific functionality
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // pretty-print for development
	Output     io.Writer
	WithCaller bool
}

// NewLogger creates a new structured logger
func NewLogger(cfg Config) *Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	// Pretty printing for development
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	zlog := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", "docvault").
		Logger()

	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog}
}

// Nop returns a logger that discards everything; used as the default
// when a component is constructed without an explicit logger.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// GetZerolog returns the underlying zerolog logger
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zlog
}

// Info logs an info message
func (l *Logger) Info(msg string) *zerolog.Event {
	return l.zlog.Info().Str("msg", msg)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) *zerolog.Event {
	return l.zlog.Debug().Str("msg", msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) *zerolog.Event {
	return l.zlog.Warn().Str("msg", msg)
}

// Error logs an error message
func (l *Logger) Error(msg string) *zerolog.Event {
	return l.zlog.Error().Str("msg", msg)
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

// StoreLogger returns a logger for version store operations
func (l *Logger) StoreLogger(operation string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "version_store").
			Str("operation", operation).
			Logger(),
	}
}

// BranchLogger returns a logger for branch manager operations
func (l *Logger) BranchLogger(operation string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "branch_manager").
			Str("operation", operation).
			Logger(),
	}
}

// MergeLogger returns a logger scoped to one merge operation
func (l *Logger) MergeLogger(documentID, fromBranch, toBranch string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "merge_engine").
			Str("document_id", documentID).
			Str("from_branch", fromBranch).
			Str("to_branch", toBranch).
			Logger(),
	}
}

// LogCommitCreated logs a newly created commit with structured fields
func (l *Logger) LogCommitCreated(documentID, versionID, versionNumber, branch string, changeCount int) {
	l.zlog.Info().
		Str("event", "commit_created").
		Str("document_id", documentID).
		Str("version_id", versionID).
		Str("version", versionNumber).
		Str("branch", branch).
		Int("change_count", changeCount).
		Msg("Commit created")
}

// LogMergeCompleted logs the outcome of a merge operation
func (l *Logger) LogMergeCompleted(documentID, fromBranch, toBranch, strategy string, conflicts int, duration time.Duration, err error) {
	event := l.zlog.Info().
		Str("event", "merge_completed").
		Str("document_id", documentID).
		Str("from_branch", fromBranch).
		Str("to_branch", toBranch).
		Str("strategy", strategy).
		Int("conflicts", conflicts).
		Dur("duration_ms", duration)

	if err != nil {
		event = l.zlog.Error().
			Str("event", "merge_failed").
			Str("document_id", documentID).
			Str("from_branch", fromBranch).
			Str("to_branch", toBranch).
			Str("strategy", strategy).
			Dur("duration_ms", duration).
			Err(err)
	}

	event.Msg("Merge operation finished")
}
