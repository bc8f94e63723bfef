// Package store persists completed vocabulary runs: run metadata, the merged
// token statistics, and the emitted vocabulary entries.
package store

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store is the interface for persisting and querying vocabulary runs.
type Store interface {
	Close() error

	// SaveRun records a completed run with its vocabulary entries and the
	// merged token statistics it was computed from.
	SaveRun(ctx context.Context, r Run, entries []Entry, stats []TokenStat) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// GetEntries returns a run's vocabulary in index order.
	GetEntries(ctx context.Context, runID string) ([]Entry, error)
	// LookupTerm returns a single vocabulary entry by token.
	LookupTerm(ctx context.Context, runID, token string) (Entry, bool, error)
	GetTokenStat(ctx context.Context, runID, token string) (TokenStat, bool, error)
}

// Run is the metadata of one vocabulary computation.
type Run struct {
	ID             string
	CreatedAt      time.Time
	VocabFilename  string
	ArtifactPath   string
	Size           int
	Labeled        bool
	StoreFrequency bool
}

// Entry is one persisted vocabulary entry.
type Entry struct {
	Token     string
	Index     int64
	Frequency float64
}

// TokenStat is one token's merged accumulation statistics.
type TokenStat struct {
	Token         string
	Count         int64
	WeightedCount float64
}

// NewRunID returns a lexicographically sortable, unique run identifier.
func NewRunID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
