package logger

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
)

// TestLogger writes through t.Logf and remembers every entry so tests can
// assert on what was logged.
type TestLogger struct {
	T      *testing.T
	fields map[string]interface{}
	store  *entryStore
}

// Entry is a single captured log line.
type Entry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

type entryStore struct {
	mu      sync.Mutex
	entries []Entry
}

// NewTestLogger creates a new test logger
func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{T: t, fields: map[string]interface{}{}, store: &entryStore{}}
}

func (l *TestLogger) log(level, msg string) {
	fields := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}
	l.store.mu.Lock()
	l.store.entries = append(l.store.entries, Entry{Level: level, Message: msg, Fields: fields})
	l.store.mu.Unlock()

	if l.T != nil {
		l.T.Logf("[%s] %s%s", level, msg, formatFields(fields))
	}
}

func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return " " + strings.Join(parts, " ")
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg) }
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg) }

// WithField returns a logger sharing the same capture buffer with one more field.
func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a logger sharing the same capture buffer with extra fields.
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &TestLogger{T: l.T, fields: merged, store: l.store}
}

// Entries returns a copy of everything logged so far.
func (l *TestLogger) Entries() []Entry {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	out := make([]Entry, len(l.store.entries))
	copy(out, l.store.entries)
	return out
}

// EntriesAt returns the captured entries for one level.
func (l *TestLogger) EntriesAt(level string) []Entry {
	var out []Entry
	for _, e := range l.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}
