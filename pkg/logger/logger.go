package logger

import (
	"fmt"
	"os"
	"sync"
)

// LoggerInstance defines the interface for logging backends.
type LoggerInstance interface {
	Log(message string, keyvals ...any)
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

// Level orders log calls. LevelLog is the plain, unlevelled output and is
// never filtered.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	LevelLog
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	case LevelLog:
		return "log"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

var (
	mu       sync.RWMutex
	backends []LoggerInstance
	minLevel = LevelDebug
)

// Init replaces the configured backends. Until Init is called every call
// except Fatal is dropped.
func Init(instances ...LoggerInstance) {
	mu.Lock()
	defer mu.Unlock()
	backends = append([]LoggerInstance(nil), instances...)
}

// Add registers one more backend next to the ones passed to Init.
func Add(instance LoggerInstance) {
	mu.Lock()
	defer mu.Unlock()
	backends = append(backends, instance)
}

// SetLevel drops calls below level before they reach any backend. Backends
// may filter further on their own. Fatal calls are never dropped.
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = min(level, LevelFatal)
}

// Enabled reports whether a call at level reaches at least one backend.
func Enabled(level Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return len(backends) > 0 && (level == LevelLog || level >= minLevel)
}

func dispatch(level Level, message string, keyvals []any) int {
	mu.RLock()
	targets := backends
	filtered := level != LevelLog && level < minLevel
	mu.RUnlock()
	if filtered {
		return 0
	}

	for _, b := range targets {
		switch level {
		case LevelDebug:
			b.Debug(message, keyvals...)
		case LevelInfo:
			b.Info(message, keyvals...)
		case LevelWarn:
			b.Warn(message, keyvals...)
		case LevelError:
			b.Error(message, keyvals...)
		case LevelFatal:
			b.Fatal(message, keyvals...)
		default:
			b.Log(message, keyvals...)
		}
	}
	return len(targets)
}

func Log(message string, keyvals ...any)   { dispatch(LevelLog, message, keyvals) }
func Debug(message string, keyvals ...any) { dispatch(LevelDebug, message, keyvals) }
func Info(message string, keyvals ...any)  { dispatch(LevelInfo, message, keyvals) }
func Warn(message string, keyvals ...any)  { dispatch(LevelWarn, message, keyvals) }
func Error(message string, keyvals ...any) { dispatch(LevelError, message, keyvals) }

// Fatal reports message on every backend. Console backends exit the program;
// with no backend configured the message goes to stderr and the program
// exits with status 1.
func Fatal(message string, keyvals ...any) {
	if dispatch(LevelFatal, message, keyvals) == 0 {
		fmt.Fprintln(os.Stderr, append([]any{"FATAL", message}, keyvals...)...)
		os.Exit(1)
	}
}
