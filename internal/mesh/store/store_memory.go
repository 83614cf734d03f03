package store

import (
	"context"
	"sync"
	"time"

	"scrollvault/internal/mesh"
)

type InMemoryState struct {
	mu       sync.RWMutex
	snapshot mesh.Snapshot
}

// NewInMemoryState starts with the last pulse at started.
func NewInMemoryState(started time.Time) *InMemoryState {
	return &InMemoryState{snapshot: mesh.Snapshot{LastPulse: started}}
}

func (s *InMemoryState) RecordSync(_ context.Context, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.LastPulse = at
	s.snapshot.Syncs++
	return nil
}

func (s *InMemoryState) Snapshot(_ context.Context) (mesh.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, nil
}
