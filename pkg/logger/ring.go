package logger

import (
	"context"
	"sync"
)

// MemorySink is a Publisher that keeps the most recent aggregated log
// entries in a ring buffer, for serving over the debug API.
type MemorySink struct {
	mu      sync.Mutex
	entries []AggregatedLogEntry
	max     int
}

// NewMemorySink creates a sink holding up to max entries.
func NewMemorySink(max int) *MemorySink {
	if max <= 0 {
		max = 500
	}
	return &MemorySink{max: max}
}

// PublishMessage receives a flushed batch from the collector.
func (s *MemorySink) PublishMessage(_ context.Context, _ string, payload interface{}) error {
	batch, ok := payload.([]AggregatedLogEntry)
	if !ok {
		return nil
	}
	s.mu.Lock()
	s.entries = append(s.entries, batch...)
	if len(s.entries) > s.max {
		s.entries = s.entries[len(s.entries)-s.max:]
	}
	s.mu.Unlock()
	return nil
}

// Recent returns up to n entries, newest last.
func (s *MemorySink) Recent(n int) []AggregatedLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]AggregatedLogEntry, n)
	copy(out, s.entries[len(s.entries)-n:])
	return out
}
