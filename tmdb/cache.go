/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tmdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS responses (
    key TEXT PRIMARY KEY,
    body BLOB NOT NULL,
    fetched_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_responses_fetched ON responses(fetched_at);
`

// Cache keeps raw directory responses in SQLite for a limited time, so that
// repeated searches and credit lookups within and across games do not hit
// the API again. It never stores game state.
type Cache struct {
	mu  sync.Mutex
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// OpenCache opens a cache at dsn. Use ":memory:" for a process-local cache or
// a file path to keep responses across restarts.
func OpenCache(dsn string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()

		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &Cache{
		db:  db,
		ttl: ttl,
		now: time.Now,
	}, nil
}

func (c *Cache) expired(fetchedAt int64) bool {
	if c.ttl <= 0 {
		return false
	}

	return c.now().Sub(time.UnixMilli(fetchedAt)) > c.ttl
}

// Get returns the stored body for key, if present and fresh.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		body      []byte
		fetchedAt int64
	)

	err := c.db.QueryRowContext(ctx,
		`SELECT body, fetched_at FROM responses WHERE key = ?`, key,
	).Scan(&body, &fetchedAt)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("failed to read cache: %w", err)
	case c.expired(fetchedAt):
		return nil, false, nil
	}

	return body, true, nil
}

// Put stores body under key, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, key string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO responses (key, body, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		key, body, c.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}

	return nil
}

// Prune deletes expired entries and returns how many were removed.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.ttl).UnixMilli()

	res, err := c.db.ExecContext(ctx, `DELETE FROM responses WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}

	return res.RowsAffected()
}

func (c *Cache) Close() error {
	return c.db.Close()
}
