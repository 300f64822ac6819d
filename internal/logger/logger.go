// Package logger is the printf-style logging seam for the acquirers, the
// scheduler and the config loader. Output goes through the standard log
// package so the dashboard can redirect or silence it in one place.
package logger

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// Logger is implemented by everything that accepts a logger.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// DebugEnv enables debug output when set to any non-empty value.
const DebugEnv = "GPUMON_DEBUG"

// Levels as recorded by BufferLogger.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// labels are printed between the component prefix and the message.
var labels = map[string]string{
	LevelDebug: "",
	LevelInfo:  "",
	LevelWarn:  "WARN: ",
	LevelError: "ERROR: ",
}

type envLogger struct {
	prefix string
}

// NewEnvLogger returns a logger tagged with a component prefix such as
// "[scheduler]". Debug lines appear only while GPUMON_DEBUG is set, which
// --verbose does.
func NewEnvLogger(prefix string) Logger {
	return &envLogger{prefix: prefix}
}

func (l *envLogger) logf(level, format string, args []interface{}) {
	if level == LevelDebug && os.Getenv(DebugEnv) == "" {
		return
	}
	log.Printf(l.prefix+" "+labels[level]+format, args...)
}

func (l *envLogger) Debug(format string, args ...interface{}) { l.logf(LevelDebug, format, args) }
func (l *envLogger) Info(format string, args ...interface{})  { l.logf(LevelInfo, format, args) }
func (l *envLogger) Warn(format string, args ...interface{})  { l.logf(LevelWarn, format, args) }
func (l *envLogger) Error(format string, args ...interface{}) { l.logf(LevelError, format, args) }

type noopLogger struct{}

// Noop discards everything. Constructors fall back to it when handed nil.
func Noop() Logger {
	return noopLogger{}
}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

// LogMessage is one line captured by BufferLogger.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger keeps every message in memory for assertions. The scheduler
// logs from its own goroutine, so access is locked.
type BufferLogger struct {
	mu       sync.Mutex
	messages []LogMessage
}

// NewBufferLogger returns an empty BufferLogger.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{}
}

func (l *BufferLogger) Debug(format string, args ...interface{}) { l.record(LevelDebug, format, args) }
func (l *BufferLogger) Info(format string, args ...interface{})  { l.record(LevelInfo, format, args) }
func (l *BufferLogger) Warn(format string, args ...interface{})  { l.record(LevelWarn, format, args) }
func (l *BufferLogger) Error(format string, args ...interface{}) { l.record(LevelError, format, args) }

func (l *BufferLogger) record(level, format string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
}

// Snapshot returns a copy of the captured messages.
func (l *BufferLogger) Snapshot() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// HasLevel reports whether anything was logged at level.
func (l *BufferLogger) HasLevel(level string) bool {
	for _, m := range l.Snapshot() {
		if m.Level == level {
			return true
		}
	}
	return false
}
