// SPDX-License-Identifier: AGPL-3.0-only
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// LogLevel is the minimum severity a Logger writes
type LogLevel int

// Log levels
const (
	Debug LogLevel = iota
	Info
	Warn
	Error
	Fatal
)

// String returns the level name used as the line prefix
func (l LogLevel) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	case Fatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a LogLevel, defaulting to Info
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return Debug
	case "info":
		return Info
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	case "fatal":
		return Fatal
	default:
		return Info
	}
}

// Options configures a Logger
type Options struct {
	Level  LogLevel
	Output io.Writer
	Prefix string
}

// Logger is a leveled wrapper around the standard logger
type Logger struct {
	mu     sync.Mutex
	level  LogLevel
	logger *log.Logger
	closer io.Closer
}

// New creates a logger writing to opts.Output (stderr when nil)
func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return &Logger{
		level:  opts.Level,
		logger: log.New(out, opts.Prefix, log.LstdFlags|log.Lmicroseconds),
	}
}

// FileLogger creates a logger appending to the file at path
func FileLogger(path string, level LogLevel) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l := New(Options{Level: level, Output: f})
	l.closer = f
	return l, nil
}

// SetLevel changes the minimum level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the minimum level
func (l *Logger) Level() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func (l *Logger) logf(level LogLevel, format string, args ...interface{}) {
	if level < l.Level() {
		return
	}
	l.logger.Printf("[%s] %s", level, fmt.Sprintf(format, args...))
}

// Debugf logs at debug level
func (l *Logger) Debugf(format string, args ...interface{}) { l.logf(Debug, format, args...) }

// Infof logs at info level
func (l *Logger) Infof(format string, args ...interface{}) { l.logf(Info, format, args...) }

// Warnf logs at warn level
func (l *Logger) Warnf(format string, args ...interface{}) { l.logf(Warn, format, args...) }

// Errorf logs at error level
func (l *Logger) Errorf(format string, args ...interface{}) { l.logf(Error, format, args...) }

// Printf logs at info level so the logger can back libraries expecting a Printf logger
func (l *Logger) Printf(format string, args ...interface{}) { l.logf(Info, format, args...) }

// Fatalf logs at fatal level and exits
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.logf(Fatal, format, args...)
	os.Exit(1)
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = New(Options{Level: Info})
)

// SetDefaultLogger replaces the package default logger
func SetDefaultLogger(l *Logger) {
	if l == nil {
		return
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// GetDefaultLogger returns the package default logger
func GetDefaultLogger() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}
