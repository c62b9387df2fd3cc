package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/pdf-ocr/internal/runs"
)

// Store is an in-memory implementation of runs.Recorder.
// It stores runs in memory and is safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	runs map[string]*runs.Run
	// history keeps every state each run passed through, in order.
	history map[string][]runs.State
}

// NewStore creates a new in-memory run store.
func NewStore() *Store {
	return &Store{
		runs:    make(map[string]*runs.Run),
		history: make(map[string][]runs.State),
	}
}

// RecordRun saves or updates a run. A state change that skips or reverses a stage
// is rejected.
func (s *Store) RecordRun(ctx context.Context, run *runs.Run) error {
	if run.RunID == "" {
		return fmt.Errorf("run ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.runs[run.RunID]; ok && prev.State != run.State {
		if !runs.CanTransition(prev.State, run.State) {
			return fmt.Errorf("run %s: illegal transition %s → %s", run.RunID, prev.State, run.State)
		}
	}

	if h := s.history[run.RunID]; len(h) == 0 || h[len(h)-1] != run.State {
		s.history[run.RunID] = append(h, run.State)
	}

	// Copy to avoid external modifications
	s.runs[run.RunID] = cloneRun(run)

	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (*runs.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.runs[runID]
	if !exists {
		return nil, fmt.Errorf("run not found: %s", runID)
	}

	return cloneRun(run), nil
}

// History returns the states a run has been recorded in, oldest first.
func (s *Store) History(runID string) []runs.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]runs.State(nil), s.history[runID]...)
}

// ListRuns returns runs matching filter, newest first.
func (s *Store) ListRuns(ctx context.Context, filter runs.Filter) ([]*runs.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*runs.Run
	for _, run := range s.runs {
		if filter.State != "" && run.State != filter.State {
			continue
		}
		result = append(result, cloneRun(run))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// cloneRun copies run including the time FinishedAt points to.
func cloneRun(run *runs.Run) *runs.Run {
	c := *run
	if run.FinishedAt != nil {
		finished := *run.FinishedAt
		c.FinishedAt = &finished
	}
	return &c
}

// Ensure Store implements the Recorder interface.
var _ runs.Recorder = (*Store)(nil)
