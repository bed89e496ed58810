package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a SQLite database, giving results that
// survive restarts. Safe for concurrent use.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the database at dbPath and bootstraps
// the schema. Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite is single-writer, and pooled connections would each see their
	// own ":memory:" database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS render_cache (
		cache_key TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		theme TEXT NOT NULL,
		result BLOB NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_render_cache_path ON render_cache(path);
	CREATE INDEX IF NOT EXISTS idx_render_cache_created ON render_cache(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the cached result for key, or ErrCacheMiss.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT result FROM render_cache WHERE cache_key = ?", key,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("query entry: %w", err)
	}

	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("unmarshal entry: %w", err)
	}
	return &result, nil
}

// Set stores e, replacing any previous entry under the same key.
func (s *SQLiteStore) Set(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(e.Result)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	createdAt := e.Result.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO render_cache
		 (cache_key, path, content_hash, theme, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Key, e.Path, e.ContentHash, e.Theme, payload, createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// Invalidate removes the addressed entry or every entry for a path.
func (s *SQLiteStore) Invalidate(ctx context.Context, inv Invalidation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if inv.Key != "" {
		_, err = s.db.ExecContext(ctx,
			"DELETE FROM render_cache WHERE cache_key = ?", inv.Key)
	} else {
		_, err = s.db.ExecContext(ctx,
			"DELETE FROM render_cache WHERE path = ?", inv.Path)
	}
	if err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	return nil
}

// Sweep deletes entries older than maxAge and reports how many were removed.
func (s *SQLiteStore) Sweep(ctx context.Context, maxAge time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge).Unix()
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM render_cache WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep entries: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count swept entries: %w", err)
	}
	return removed, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
