package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RTIInternational/hefs-fews-hub/config"
)

// Logger defines the logging interface
type Logger interface {
	// Error logs an error message
	Error(msg string, args ...interface{})
	// Warn logs a warning message
	Warn(msg string, args ...interface{})
	// Info logs an informational message
	Info(msg string, args ...interface{})
	// Debug logs a debug message
	Debug(msg string, args ...interface{})
	// Verbose logs a verbose/trace message
	Verbose(msg string, args ...interface{})

	// With returns a new logger with additional context fields
	With(key string, value interface{}) Logger
	// WithFields returns a new logger with multiple context fields
	WithFields(fields map[string]interface{}) Logger
}

var levels = map[config.LogLevel]int{
	config.LogLevelSilent:  0,
	config.LogLevelError:   1,
	config.LogLevelInfo:    2,
	config.LogLevelDebug:   3,
	config.LogLevelVerbose: 4,
}

// output is shared by a logger and every child returned from With
type output struct {
	mu     sync.Mutex
	writer io.Writer
}

// DefaultLogger is the default logger implementation
type DefaultLogger struct {
	out        *output
	level      config.LogLevel
	name       string
	fields     map[string]interface{}
	addSource  bool
	timeFormat string
}

// NewLogger creates a logger writing to stdout and, when cfg.File is set, to
// that file as well. The returned closer releases the file.
func NewLogger(cfg *config.LoggerConfig) (Logger, io.Closer, error) {
	if cfg == nil {
		cfg = &config.LoggerConfig{}
	}
	cfg.ApplyDefaults()

	if cfg.File == "" {
		return NewLoggerWithWriter(cfg, os.Stdout), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return newDefaultLogger(cfg, io.MultiWriter(os.Stdout, f)), f, nil
}

// NewLoggerWithWriter creates a logger with a custom writer (useful for testing)
func NewLoggerWithWriter(cfg *config.LoggerConfig, writer io.Writer) Logger {
	if cfg == nil {
		cfg = &config.LoggerConfig{}
	}
	cfg.ApplyDefaults()
	return newDefaultLogger(cfg, writer)
}

func newDefaultLogger(cfg *config.LoggerConfig, writer io.Writer) *DefaultLogger {
	timeFormat := cfg.TimeFormat
	if timeFormat == "none" {
		timeFormat = ""
	}
	return &DefaultLogger{
		out:        &output{writer: writer},
		level:      cfg.Level,
		name:       cfg.Name,
		fields:     make(map[string]interface{}),
		addSource:  cfg.AddSource,
		timeFormat: timeFormat,
	}
}

func (l *DefaultLogger) shouldLog(level config.LogLevel) bool {
	if l.level == config.LogLevelSilent {
		return false
	}
	return levels[level] <= levels[l.level]
}

// log formats one line as: time name LEVEL [k=v, ...] message
func (l *DefaultLogger) log(level config.LogLevel, label, msg string, args ...interface{}) {
	if !l.shouldLog(level) {
		return
	}

	var b strings.Builder

	if l.timeFormat != "" {
		b.WriteString(time.Now().Format(l.timeFormat))
		b.WriteByte(' ')
	}
	if l.name != "" {
		b.WriteString(l.name)
		b.WriteByte(' ')
	}
	b.WriteString(label)
	b.WriteByte(' ')

	if l.addSource {
		if _, file, line, ok := runtime.Caller(2); ok {
			fmt.Fprintf(&b, "%s:%d ", filepath.Base(file), line)
		}
	}

	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('[')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, l.fields[k])
		}
		b.WriteString("] ")
	}

	if len(args) > 0 {
		fmt.Fprintf(&b, msg, args...)
	} else {
		b.WriteString(msg)
	}
	b.WriteByte('\n')

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	io.WriteString(l.out.writer, b.String())
}

// Error logs an error message
func (l *DefaultLogger) Error(msg string, args ...interface{}) {
	l.log(config.LogLevelError, "ERROR", msg, args...)
}

// Warn logs a warning message
func (l *DefaultLogger) Warn(msg string, args ...interface{}) {
	l.log(config.LogLevelInfo, "WARNING", msg, args...)
}

// Info logs an informational message
func (l *DefaultLogger) Info(msg string, args ...interface{}) {
	l.log(config.LogLevelInfo, "INFO", msg, args...)
}

// Debug logs a debug message
func (l *DefaultLogger) Debug(msg string, args ...interface{}) {
	l.log(config.LogLevelDebug, "DEBUG", msg, args...)
}

// Verbose logs a verbose/trace message
func (l *DefaultLogger) Verbose(msg string, args ...interface{}) {
	l.log(config.LogLevelVerbose, "TRACE", msg, args...)
}

// With returns a new logger with an additional context field
func (l *DefaultLogger) With(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a new logger with multiple context fields
func (l *DefaultLogger) WithFields(fields map[string]interface{}) Logger {
	newFields := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}

	child := *l
	child.fields = newFields
	return &child
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NoOpLogger is a logger that does nothing (useful for testing or when logging is disabled)
type NoOpLogger struct{}

// NewNoOpLogger creates a no-op logger
func NewNoOpLogger() Logger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) Error(msg string, args ...interface{})           {}
func (n *NoOpLogger) Warn(msg string, args ...interface{})            {}
func (n *NoOpLogger) Info(msg string, args ...interface{})            {}
func (n *NoOpLogger) Debug(msg string, args ...interface{})           {}
func (n *NoOpLogger) Verbose(msg string, args ...interface{})         {}
func (n *NoOpLogger) With(key string, value interface{}) Logger       { return n }
func (n *NoOpLogger) WithFields(fields map[string]interface{}) Logger { return n }
