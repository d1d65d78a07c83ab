package justlog

import (
	"sync"
	"time"
)

// Entry is a single log event. It is built once by the dispatch path
// and never mutated afterwards; formatters and sinks only read it.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
	Args    []interface{}
	Fields  map[string]interface{}
}

// extras collects the positional args and named fields into one map
// for presentation. Returns nil when the entry carries neither.
func (e Entry) extras() map[string]interface{} {
	if len(e.Args) == 0 && len(e.Fields) == 0 {
		return nil
	}
	extras := make(map[string]interface{}, len(e.Fields)+1)
	for k, v := range e.Fields {
		extras[k] = v
	}
	if len(e.Args) > 0 {
		extras["args"] = e.Args
	}
	return extras
}

// Sink receives structured log entries. Implementations back the
// optional store configured via Config.Store; the sqlitestore package
// provides a persistent one.
//
// Emit is best-effort from the logger's point of view: a returned error
// is routed to the error handler and never reaches the logging caller,
// and it never blocks delivery to the file or stderr sinks.
// Implementations must be safe for concurrent use.
type Sink interface {
	Emit(Entry) error
}

// MemorySink is a Sink that buffers entries in memory. Useful in tests
// and short-lived tools.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
}

func (m *MemorySink) Emit(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// Entries returns a copy of everything emitted so far.
func (m *MemorySink) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len reports the number of emitted entries.
func (m *MemorySink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
