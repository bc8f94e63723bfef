package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/lexika/pkg/lexika/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and initializes
// the schema.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	vocab_filename TEXT NOT NULL,
	artifact_path TEXT,
	size INTEGER NOT NULL,
	labeled INTEGER NOT NULL DEFAULT 0,
	store_frequency INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS vocab_entries (
	run_id TEXT NOT NULL,
	token TEXT NOT NULL,
	idx INTEGER NOT NULL,
	frequency REAL NOT NULL DEFAULT 0,
	PRIMARY KEY(run_id, token),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_vocab_entries_run_idx ON vocab_entries(run_id, idx);

CREATE TABLE IF NOT EXISTS token_stats (
	run_id TEXT NOT NULL,
	token TEXT NOT NULL,
	count INTEGER NOT NULL,
	weighted_count REAL NOT NULL,
	PRIMARY KEY(run_id, token),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun records a run with its vocabulary and token statistics in one
// transaction.
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run, entries []store.Entry, stats []store.TokenStat) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, created_at, vocab_filename, artifact_path, size, labeled, store_frequency)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UTC().Format(time.RFC3339Nano), r.VocabFilename,
		r.ArtifactPath, r.Size, boolToInt(r.Labeled), boolToInt(r.StoreFrequency))
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	entryStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO vocab_entries (run_id, token, idx, frequency)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	defer entryStmt.Close()

	for _, e := range entries {
		if _, err := entryStmt.ExecContext(ctx, r.ID, e.Token, e.Index, e.Frequency); err != nil {
			return fmt.Errorf("save run entry %q: %w", e.Token, err)
		}
	}

	statStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO token_stats (run_id, token, count, weighted_count)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	defer statStmt.Close()

	for _, st := range stats {
		if _, err := statStmt.ExecContext(ctx, r.ID, st.Token, st.Count, st.WeightedCount); err != nil {
			return fmt.Errorf("save run stat %q: %w", st.Token, err)
		}
	}

	return tx.Commit()
}

// GetRun returns a run by ID.
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, vocab_filename, artifact_path, size, labeled, store_frequency
		FROM runs WHERE id = ?`, id)

	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return store.Run{}, false, nil
	}
	if err != nil {
		return store.Run{}, false, fmt.Errorf("get run: %w", err)
	}
	return r, true, nil
}

// ListRuns returns runs newest first.
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, vocab_filename, artifact_path, size, labeled, store_frequency
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetEntries returns a run's vocabulary in index order.
func (s *sqliteStore) GetEntries(ctx context.Context, runID string) ([]store.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, idx, frequency FROM vocab_entries
		WHERE run_id = ? ORDER BY idx ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("get entries: %w", err)
	}
	defer rows.Close()

	var entries []store.Entry
	for rows.Next() {
		var e store.Entry
		if err := rows.Scan(&e.Token, &e.Index, &e.Frequency); err != nil {
			return nil, fmt.Errorf("get entries: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LookupTerm returns a single vocabulary entry by token.
func (s *sqliteStore) LookupTerm(ctx context.Context, runID, token string) (store.Entry, bool, error) {
	var e store.Entry
	err := s.db.QueryRowContext(ctx, `
		SELECT token, idx, frequency FROM vocab_entries
		WHERE run_id = ? AND token = ?`, runID, token).Scan(&e.Token, &e.Index, &e.Frequency)
	if err == sql.ErrNoRows {
		return store.Entry{}, false, nil
	}
	if err != nil {
		return store.Entry{}, false, fmt.Errorf("lookup term: %w", err)
	}
	return e, true, nil
}

// GetTokenStat returns a token's merged statistics for a run.
func (s *sqliteStore) GetTokenStat(ctx context.Context, runID, token string) (store.TokenStat, bool, error) {
	var st store.TokenStat
	err := s.db.QueryRowContext(ctx, `
		SELECT token, count, weighted_count FROM token_stats
		WHERE run_id = ? AND token = ?`, runID, token).Scan(&st.Token, &st.Count, &st.WeightedCount)
	if err == sql.ErrNoRows {
		return store.TokenStat{}, false, nil
	}
	if err != nil {
		return store.TokenStat{}, false, fmt.Errorf("get token stat: %w", err)
	}
	return st, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (store.Run, error) {
	var r store.Run
	var createdAt string
	var labeled, storeFreq int
	if err := row.Scan(&r.ID, &createdAt, &r.VocabFilename, &r.ArtifactPath, &r.Size, &labeled, &storeFreq); err != nil {
		return store.Run{}, err
	}
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		r.CreatedAt = ts
	}
	r.Labeled = labeled != 0
	r.StoreFrequency = storeFreq != 0
	return r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
