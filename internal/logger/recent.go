package logger

import (
	"encoding/json"
	"sync"
)

const defaultRecentSize = 500

// LogEntry is a parsed log line kept for the logs endpoint.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// RecentLogs is an io.Writer that keeps the last N zerolog JSON entries.
type RecentLogs struct {
	mu      sync.RWMutex
	entries []LogEntry
	next    int
	full    bool
}

// NewRecentLogs creates a buffer holding at most size entries.
func NewRecentLogs(size int) *RecentLogs {
	if size <= 0 {
		size = defaultRecentSize
	}
	return &RecentLogs{entries: make([]LogEntry, size)}
}

// Write implements io.Writer. Lines that are not JSON objects are dropped.
func (r *RecentLogs) Write(p []byte) (int, error) {
	entry, ok := parseEntry(p)
	if !ok {
		return len(p), nil
	}

	r.mu.Lock()
	r.entries[r.next] = entry
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()

	return len(p), nil
}

// Entries returns the buffered entries, oldest first.
func (r *RecentLogs) Entries() []LogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.full {
		out := make([]LogEntry, r.next)
		copy(out, r.entries[:r.next])
		return out
	}

	out := make([]LogEntry, 0, len(r.entries))
	out = append(out, r.entries[r.next:]...)
	return append(out, r.entries[:r.next]...)
}

// Len returns the number of buffered entries.
func (r *RecentLogs) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.full {
		return len(r.entries)
	}
	return r.next
}

func parseEntry(data []byte) (LogEntry, bool) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return LogEntry{}, false
	}

	entry := LogEntry{}
	entry.Timestamp, _ = raw["time"].(string)
	entry.Level, _ = raw["level"].(string)
	entry.Component, _ = raw["component"].(string)
	entry.Message, _ = raw["message"].(string)
	for _, k := range []string{"time", "level", "component", "message"} {
		delete(raw, k)
	}
	if len(raw) > 0 {
		entry.Fields = raw
	}
	return entry, true
}
