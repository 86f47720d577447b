package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const DefaultTTL = 5 * time.Minute

// tsLayout is fixed width so expiry comparisons work on the stored text.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry represents a cached API response body.
type Entry struct {
	Key       string    `json:"key"`
	Path      string    `json:"path"`
	Body      []byte    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	HitCount  int       `json:"hit_count"`
}

// Cache is an embedded SQLite-backed response cache.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Cache {
	return &Cache{db: db, now: time.Now}
}

func (c *Cache) Init() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS response_cache (
			key        TEXT PRIMARY KEY,
			path       TEXT NOT NULL,
			body       BLOB NOT NULL,
			created_at TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			hit_count  INTEGER DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_response_cache_path ON response_cache(path);
		CREATE INDEX IF NOT EXISTS idx_response_cache_expires ON response_cache(expires_at);
	`)
	return err
}

// Key computes the canonical cache key for a request. Query parameters are
// encoded in sorted order so equivalent queries share a key.
func Key(method, path string, query url.Values) string {
	h := sha256.New()
	h.Write([]byte(strings.ToUpper(method) + "|" + path + "|" + query.Encode()))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// Get retrieves a cache entry if valid.
func (c *Cache) Get(key string) (*Entry, bool, error) {
	var e Entry
	var createdAt, expiresAt string

	err := c.db.QueryRow(`
		SELECT key, path, body, created_at, expires_at, hit_count
		FROM response_cache WHERE key = ?
	`, key).Scan(&e.Key, &e.Path, &e.Body, &createdAt, &expiresAt, &e.HitCount)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query cache: %w", err)
	}

	e.CreatedAt, _ = time.Parse(tsLayout, createdAt)
	e.ExpiresAt, _ = time.Parse(tsLayout, expiresAt)

	if c.now().After(e.ExpiresAt) {
		// Lazy delete
		_, _ = c.db.Exec(`DELETE FROM response_cache WHERE key = ?`, key)
		return nil, false, nil
	}

	_, _ = c.db.Exec(`UPDATE response_cache SET hit_count = hit_count + 1 WHERE key = ?`, key)
	e.HitCount++

	return &e, true, nil
}

// Set stores a response body. A non-positive ttl falls back to DefaultTTL.
func (c *Cache) Set(key, path string, body []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := c.now().UTC()
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO response_cache (key, path, body, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, key, path, body, now.Format(tsLayout), now.Add(ttl).Format(tsLayout))
	return err
}

// Invalidate removes a cache entry.
func (c *Cache) Invalidate(key string) error {
	_, err := c.db.Exec(`DELETE FROM response_cache WHERE key = ?`, key)
	return err
}

// InvalidatePath removes every entry whose path starts with prefix.
func (c *Cache) InvalidatePath(prefix string) (int64, error) {
	res, err := c.db.Exec(`DELETE FROM response_cache WHERE substr(path, 1, length(?)) = ?`, prefix, prefix)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Purge removes all expired entries.
func (c *Cache) Purge() (int64, error) {
	res, err := c.db.Exec(`DELETE FROM response_cache WHERE expires_at < ?`, c.now().UTC().Format(tsLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Clear removes every entry.
func (c *Cache) Clear() (int64, error) {
	res, err := c.db.Exec(`DELETE FROM response_cache`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Stats returns cache statistics.
func (c *Cache) Stats() (total, expired int64, err error) {
	err = c.db.QueryRow(`SELECT COUNT(*) FROM response_cache`).Scan(&total)
	if err != nil {
		return
	}
	err = c.db.QueryRow(`SELECT COUNT(*) FROM response_cache WHERE expires_at < ?`,
		c.now().UTC().Format(tsLayout)).Scan(&expired)
	return
}
