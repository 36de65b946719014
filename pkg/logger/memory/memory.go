package memory

import "sync"

// Entry is one captured log call.
type Entry struct {
	Level   string
	Message string
	KeyVals []any
}

// MemoryLogger implements LoggerInstance by keeping every entry in memory.
// It is used in tests to assert on what the pipeline reports.
type MemoryLogger struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryLogger creates an empty in-memory logger.
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (m *MemoryLogger) add(level, message string, keyvals []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Level: level, Message: message, KeyVals: keyvals})
}

func (m *MemoryLogger) Log(message string, keyvals ...any)   { m.add("log", message, keyvals) }
func (m *MemoryLogger) Debug(message string, keyvals ...any) { m.add("debug", message, keyvals) }
func (m *MemoryLogger) Info(message string, keyvals ...any)  { m.add("info", message, keyvals) }
func (m *MemoryLogger) Warn(message string, keyvals ...any)  { m.add("warn", message, keyvals) }
func (m *MemoryLogger) Error(message string, keyvals ...any) { m.add("error", message, keyvals) }

// Fatal records the entry. Unlike the console logger it does not exit.
func (m *MemoryLogger) Fatal(message string, keyvals ...any) { m.add("fatal", message, keyvals) }

// Entries returns a copy of the captured entries.
func (m *MemoryLogger) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Count returns how many entries were captured at level.
func (m *MemoryLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}
