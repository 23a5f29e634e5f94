package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// TestLogger captures log records for assertions in tests
type TestLogger struct {
	mu      sync.RWMutex
	entries []TestLogEntry
}

// TestLogEntry represents a captured log entry
type TestLogEntry struct {
	Time      time.Time
	Level     slog.Level
	Message   string
	Component string
	Attrs     map[string]interface{}
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	return &TestLogger{}
}

// GetHandler returns a slog.Handler that records into this test logger
func (tl *TestLogger) GetHandler() slog.Handler {
	return &captureHandler{sink: tl}
}

// GetLogger returns a slog.Logger that records into this test logger
func (tl *TestLogger) GetLogger() *slog.Logger {
	return slog.New(tl.GetHandler())
}

// GetEntries returns all captured log entries
func (tl *TestLogger) GetEntries() []TestLogEntry {
	tl.mu.RLock()
	defer tl.mu.RUnlock()

	entries := make([]TestLogEntry, len(tl.entries))
	copy(entries, tl.entries)
	return entries
}

// GetEntriesWithLevel returns log entries at exactly level
func (tl *TestLogger) GetEntriesWithLevel(level slog.Level) []TestLogEntry {
	var filtered []TestLogEntry
	for _, entry := range tl.GetEntries() {
		if entry.Level == level {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// GetEntriesWithMessage returns log entries containing message
func (tl *TestLogger) GetEntriesWithMessage(message string) []TestLogEntry {
	var filtered []TestLogEntry
	for _, entry := range tl.GetEntries() {
		if strings.Contains(entry.Message, message) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// Reset clears captured entries
func (tl *TestLogger) Reset() {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.entries = nil
}

func (tl *TestLogger) add(entry TestLogEntry) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.entries = append(tl.entries, entry)
}

type captureHandler struct {
	sink  *TestLogger
	attrs []slog.Attr
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, record slog.Record) error {
	entry := TestLogEntry{
		Time:    record.Time,
		Level:   record.Level,
		Message: record.Message,
		Attrs:   make(map[string]interface{}),
	}
	collect := func(a slog.Attr) bool {
		if a.Key == "component" {
			entry.Component = a.Value.String()
		}
		entry.Attrs[a.Key] = a.Value.Any()
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	record.Attrs(collect)
	h.sink.add(entry)
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &captureHandler{sink: h.sink, attrs: merged}
}

// Groups are flattened; tests only inspect top-level keys.
func (h *captureHandler) WithGroup(string) slog.Handler { return h }
