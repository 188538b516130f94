// =============================================================================
// Pipeline Dashboard - Logging
// =============================================================================
//
// Every component logs through the small Logger interface below. The
// production implementation is backed by logrus; tests use NewNop or a
// logrus test hook.
//
// Messages are printf-style. Structured context is attached with WithField,
// e.g. logger.WithField("strategy", "csv").Warn("attempt %d failed", n).
//
// =============================================================================

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the logging interface used throughout the application.
// CUSTOMIZATION: Implement this interface to route logs elsewhere.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithField returns a Logger that adds key=value to every entry.
	WithField(key string, value interface{}) Logger
}

// Options controls how New builds the logger.
type Options struct {
	// Level is one of: debug, info, warn, error.
	Level string

	// File is an optional log file path. Empty logs to Output.
	File string

	// Output is the destination when File is empty. Defaults to stderr.
	Output io.Writer

	// JSON selects the JSON formatter instead of text.
	JSON bool
}

// =============================================================================
// LOGRUS IMPLEMENTATION
// =============================================================================

type logrusLogger struct {
	entry *logrus.Entry
}

// New creates a logrus-backed Logger.
//
// RETURNS:
//   - The Logger.
//   - A close function for the log file (a no-op when logging to a writer).
//   - An error if the level is unknown or the log file cannot be opened.
func New(opts Options) (Logger, func() error, error) {
	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(defaultString(opts.Level, "info"))))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}

	l := logrus.New()
	l.SetLevel(level)

	if opts.JSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	closer := func() error { return nil }
	switch {
	case opts.File != "":
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.SetOutput(f)
		closer = f.Close
	case opts.Output != nil:
		l.SetOutput(opts.Output)
	default:
		l.SetOutput(os.Stderr)
	}

	return FromLogrus(l), closer, nil
}

// FromLogrus wraps an existing logrus logger.
func FromLogrus(l *logrus.Logger) Logger {
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func (l *logrusLogger) Debug(msg string, args ...interface{}) {
	l.entry.Debugf(msg, args...)
}

func (l *logrusLogger) Info(msg string, args ...interface{}) {
	l.entry.Infof(msg, args...)
}

func (l *logrusLogger) Warn(msg string, args ...interface{}) {
	l.entry.Warnf(msg, args...)
}

func (l *logrusLogger) Error(msg string, args ...interface{}) {
	l.entry.Errorf(msg, args...)
}

func (l *logrusLogger) WithField(key string, value interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}

// =============================================================================
// NO-OP LOGGER
// =============================================================================

type nopLogger struct{}

// NewNop returns a Logger that discards everything.
func NewNop() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func (n nopLogger) WithField(string, interface{}) Logger { return n }

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NewNop()
	}
	return l
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
