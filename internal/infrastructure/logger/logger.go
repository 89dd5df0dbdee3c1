// Package logger provides the structured logger used across the ledger
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Level represents the severity level of a log message
type Level string

const (
	// DebugLevel is used for development messages
	DebugLevel Level = "debug"
	// InfoLevel is used for general operational information
	InfoLevel Level = "info"
	// WarnLevel is used for warnings and potential issues
	WarnLevel Level = "warn"
	// ErrorLevel is used for errors and unexpected events
	ErrorLevel Level = "error"
	// FatalLevel is used for critical errors that require termination
	FatalLevel Level = "fatal"
)

// ParseLevel converts a configuration string into a Level
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel, FatalLevel:
		return l, nil
	case "":
		return InfoLevel, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case DebugLevel:
		return zerolog.DebugLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	case FatalLevel:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger defines the interface for the application logger
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Fatal(msg string, fields map[string]interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// JSONLogger writes one JSON object per log line through zerolog
type JSONLogger struct {
	zl zerolog.Logger
}

// NewJSONLogger creates a new JSON logger; a nil output writes to stdout
func NewJSONLogger(output io.Writer, level Level) *JSONLogger {
	if output == nil {
		output = os.Stdout
	}

	zl := zerolog.New(output).
		Level(level.zerolog()).
		With().
		Timestamp().
		Logger()

	return &JSONLogger{zl: zl}
}

// WithField returns a new logger with the field added to the log context
func (l *JSONLogger) WithField(key string, value interface{}) Logger {
	return &JSONLogger{zl: l.zl.With().Interface(key, value).Logger()}
}

// WithFields returns a new logger with the fields added to the log context
func (l *JSONLogger) WithFields(fields map[string]interface{}) Logger {
	if len(fields) == 0 {
		return l
	}
	return &JSONLogger{zl: l.zl.With().Fields(fields).Logger()}
}

// Debug logs a message at debug level
func (l *JSONLogger) Debug(msg string, fields map[string]interface{}) {
	l.write(l.zl.Debug(), msg, fields)
}

// Info logs a message at info level
func (l *JSONLogger) Info(msg string, fields map[string]interface{}) {
	l.write(l.zl.Info(), msg, fields)
}

// Warn logs a message at warn level
func (l *JSONLogger) Warn(msg string, fields map[string]interface{}) {
	l.write(l.zl.Warn(), msg, fields)
}

// Error logs a message at error level
func (l *JSONLogger) Error(msg string, fields map[string]interface{}) {
	l.write(l.zl.Error(), msg, fields)
}

// Fatal logs a message at fatal level and then terminates the program
func (l *JSONLogger) Fatal(msg string, fields map[string]interface{}) {
	l.write(l.zl.Fatal(), msg, fields)
}

// write skips the wrapper frame so the caller field points at the call site
func (l *JSONLogger) write(e *zerolog.Event, msg string, fields map[string]interface{}) {
	if e == nil {
		return
	}
	if len(fields) > 0 {
		e = e.Fields(fields)
	}
	e.Caller(2).Msg(msg)
}

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger = NewJSONLogger(os.Stdout, InfoLevel)
)

// GetDefaultLogger returns the process-wide fallback logger
func GetDefaultLogger() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger replaces the process-wide fallback logger
func SetDefaultLogger(logger Logger) {
	if logger == nil {
		return
	}
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
}

// Debug Global logger functions
func Debug(msg string, fields map[string]interface{}) {
	GetDefaultLogger().Debug(msg, fields)
}

func Info(msg string, fields map[string]interface{}) {
	GetDefaultLogger().Info(msg, fields)
}

func Warn(msg string, fields map[string]interface{}) {
	GetDefaultLogger().Warn(msg, fields)
}

func Error(msg string, fields map[string]interface{}) {
	GetDefaultLogger().Error(msg, fields)
}
