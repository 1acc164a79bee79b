// Package nodecache persists the peer alias cache lndsource.Client builds
// up during a run, the way Bitcoinite-regolancer's --node-cache-filename
// survives a restart. Only pubkey-to-alias lookups are ever written here;
// no forward, payment, or channel history is stored, since history
// persistence is explicitly out of scope for the advisor.
package nodecache

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Cache is a sqlite-backed alias lookup table keyed by peer pubkey.
type Cache struct {
	conn     *sql.DB
	lifetime time.Duration
}

// Open opens (creating if necessary) the sqlite file at path and ensures
// its schema exists. entries older than lifetime are treated as expired by
// Lookup and are swept out lazily by Prune.
func Open(path string, lifetime time.Duration) (*Cache, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening node cache: %w", err)
	}

	c := &Cache{conn: conn, lifetime: lifetime}
	if err := c.initSchema(); err != nil {
		return nil, fmt.Errorf("initializing node cache schema: %w", err)
	}
	return c, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.conn.Close()
}

func (c *Cache) initSchema() error {
	_, err := c.conn.Exec(`
		CREATE TABLE IF NOT EXISTS node_aliases (
			pubkey TEXT PRIMARY KEY,
			alias TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`)
	return err
}

// Lookup returns the cached alias for pubkey, or ok=false if no entry
// exists or the entry is older than the cache's configured lifetime.
func (c *Cache) Lookup(pubkey string) (alias string, ok bool, err error) {
	var updatedAt time.Time
	row := c.conn.QueryRow(`SELECT alias, updated_at FROM node_aliases WHERE pubkey = ?`, pubkey)
	if err := row.Scan(&alias, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	if c.lifetime > 0 && time.Since(updatedAt) > c.lifetime {
		return "", false, nil
	}
	return alias, true, nil
}

// Store upserts the alias for pubkey with the current timestamp.
func (c *Cache) Store(pubkey, alias string) error {
	_, err := c.conn.Exec(`
		INSERT INTO node_aliases (pubkey, alias, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(pubkey) DO UPDATE SET alias = excluded.alias, updated_at = excluded.updated_at
	`, pubkey, alias, time.Now().UTC())
	return err
}

// Prune deletes every entry older than the cache's configured lifetime,
// returning the number of rows removed. A non-positive lifetime disables
// pruning entirely (entries never expire).
func (c *Cache) Prune() (int64, error) {
	if c.lifetime <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-c.lifetime)
	res, err := c.conn.Exec(`DELETE FROM node_aliases WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
