package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps rows in process memory. Used by tests and when no
// database is configured.
type InMemoryStore struct {
	mu        sync.RWMutex
	runs      []Run
	decisions []Decision
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) InsertRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

func (s *InMemoryStore) InsertDecision(_ context.Context, decision Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = append(s.decisions, decision)
	return nil
}

// Runs returns a copy of the stored runs in insertion order.
func (s *InMemoryStore) Runs() []Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Run(nil), s.runs...)
}

// Decisions returns a copy of the stored decisions in insertion order.
func (s *InMemoryStore) Decisions() []Decision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Decision(nil), s.decisions...)
}
