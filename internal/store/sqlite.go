package store

import (
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS cache (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteCache is a durable Cache backed by a single-table sqlite database,
// standing in for the browser's local storage. Per the cache contract,
// write failures are logged and swallowed rather than surfaced: losing a
// backup write must never fail the game action that triggered it.
type SQLiteCache struct {
	db     *sql.DB
	logger *log.Logger
}

// NewSQLiteCache opens (creating if needed) the cache database at path.
func NewSQLiteCache(path string, logger *log.Logger) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialise cache schema: %w", err)
	}
	return &SQLiteCache{db: db, logger: logger.WithPrefix("cache")}, nil
}

// Close releases the underlying database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func (c *SQLiteCache) Get(key string) (string, bool) {
	var value string
	err := c.db.QueryRow(`SELECT value FROM cache WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
		return "", false
	}
	return value, true
}

func (c *SQLiteCache) Set(key, value string) {
	_, err := c.db.Exec(`INSERT OR REPLACE INTO cache (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

func (c *SQLiteCache) Remove(key string) {
	if _, err := c.db.Exec(`DELETE FROM cache WHERE key = ?`, key); err != nil {
		c.logger.Warn("cache delete failed", "key", key, "error", err)
	}
}
