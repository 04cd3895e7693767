package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// InMemoryRunStore implements RunStore without persistence.
type InMemoryRunStore struct {
	mu   sync.RWMutex
	runs []Run
}

// NewInMemoryRunStore returns an empty in-memory store.
func NewInMemoryRunStore() *InMemoryRunStore {
	return &InMemoryRunStore{}
}

// Record stores r and returns its ID.
func (s *InMemoryRunStore) Record(ctx context.Context, r Run) (string, error) {
	if r.JobID == "" {
		return "", fmt.Errorf("run job ID is required")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Argv = append([]string(nil), r.Argv...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, r)
	return r.ID, nil
}

// Get returns the run with the given ID, or ErrRunNotFound.
func (s *InMemoryRunStore) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.runs {
		if r.ID == id {
			r := r
			return &r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
}

// List returns runs ordered by start time, most recent first.
func (s *InMemoryRunStore) List(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	runs := make([]Run, len(s.runs))
	copy(runs, s.runs)
	s.mu.RUnlock()

	// Reverse insertion order breaks start time ties, as rowid does in SQLite.
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Close is a no-op.
func (s *InMemoryRunStore) Close() error {
	return nil
}
