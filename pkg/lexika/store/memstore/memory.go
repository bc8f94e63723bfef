package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/lexika/pkg/lexika/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu      sync.RWMutex
	runs    map[string]store.Run
	entries map[string][]store.Entry
	stats   map[string]map[string]store.TokenStat
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		runs:    make(map[string]store.Run),
		entries: make(map[string][]store.Entry),
		stats:   make(map[string]map[string]store.TokenStat),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveRun records a run and its associated data.
func (s *Store) SaveRun(ctx context.Context, r store.Run, entries []store.Entry, stats []store.TokenStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[r.ID] = r

	copied := make([]store.Entry, len(entries))
	copy(copied, entries)
	sort.Slice(copied, func(i, j int) bool { return copied[i].Index < copied[j].Index })
	s.entries[r.ID] = copied

	byToken := make(map[string]store.TokenStat, len(stats))
	for _, st := range stats {
		byToken[st.Token] = st
	}
	s.stats[r.ID] = byToken
	return nil
}

// GetRun returns a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	return r, ok, nil
}

// ListRuns returns runs ordered newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	// ULIDs sort chronologically.
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// GetEntries returns a run's vocabulary in index order.
func (s *Store) GetEntries(ctx context.Context, runID string) ([]store.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.entries[runID]
	out := make([]store.Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// LookupTerm returns one vocabulary entry by token.
func (s *Store) LookupTerm(ctx context.Context, runID, token string) (store.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries[runID] {
		if e.Token == token {
			return e, true, nil
		}
	}
	return store.Entry{}, false, nil
}

// GetTokenStat returns a token's merged statistics for a run.
func (s *Store) GetTokenStat(ctx context.Context, runID, token string) (store.TokenStat, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stats[runID][token]
	return st, ok, nil
}
