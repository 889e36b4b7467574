// Package log configures the process-wide slog logger used for diagnostics.
//
// All recoverable anomalies found while reconstructing commands from a trace
// are reported here with enough context (line number, pid, full argument
// string) to audit the resulting database by hand. Fatal conditions are not
// logged; they are returned as errors and abort the run.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Options configures the global logger.
type Options struct {
	// Verbose enables debug/info output. Default shows warnings and errors.
	Verbose bool
	// JSONFormat uses JSON output instead of text.
	JSONFormat bool
	// Stderr is the writer for log output (defaults to os.Stderr).
	Stderr io.Writer
}

var logger *slog.Logger

// Init initializes the global logger with the given options.
func Init(opts Options) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.JSONFormat {
		handler = slog.NewJSONHandler(stderr, hopts)
	} else {
		handler = slog.NewTextHandler(stderr, hopts)
	}

	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// SetRunID attaches a run_id attribute to all subsequent log records so that
// diagnostics can be correlated with a persisted run.
func SetRunID(runID string) {
	logger = slog.New(logger.Handler().WithAttrs([]slog.Attr{
		slog.String("run_id", runID),
	}))
	slog.SetDefault(logger)
}

// Logger returns the current global logger.
func Logger() *slog.Logger {
	return logger
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

// Info logs an info message.
func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}

func init() {
	logger = slog.Default()
}
