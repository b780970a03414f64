package ingest

import (
	"log/slog"
	"sync"
)

// Rejection records one skipped row. Rejections are emitted in source
// order and are the sole channel for row-level problems: they are never
// surfaced to the caller as errors.
type Rejection struct {
	Entity string            // entity type: "customers"
	Source string            // source name (file) the row came from
	Row    int               // 1-based position within the source's data rows
	Key    map[string]string // raw values of the entity's key fields
	Reason string            // human-readable cause
}

// RejectionSink receives rejection records during a run.
// Sinks are injected so the rejection log is capturable in tests instead
// of being a shared file handle.
type RejectionSink interface {
	Reject(r Rejection)
}

// SlogSink writes rejections to a structured logger at warn level.
type SlogSink struct {
	Logger *slog.Logger
}

// Reject implements RejectionSink.
func (s SlogSink) Reject(r Rejection) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	args := []any{
		"entity", r.Entity,
		"source", r.Source,
		"row", r.Row,
		"reason", r.Reason,
	}
	for k, v := range r.Key {
		args = append(args, "key_"+k, v)
	}
	logger.Warn("row rejected", args...)
}

// MemorySink captures rejections in memory, preserving emission order.
type MemorySink struct {
	mu      sync.Mutex
	entries []Rejection
}

// Reject implements RejectionSink.
func (s *MemorySink) Reject(r Rejection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, r)
}

// Entries returns a copy of the captured rejections in emission order.
func (s *MemorySink) Entries() []Rejection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Rejection, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of captured rejections.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
