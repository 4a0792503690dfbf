// Package chatdb reads the Messages chat.db. It never writes to it.
package chatdb

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultQueryTimeout bounds a single query when none is configured.
const DefaultQueryTimeout = 5 * time.Second

// DB wraps a read-only connection to chat.db.
type DB struct {
	*sql.DB
	path    string
	timeout time.Duration
}

// Open opens the store at path read-only. A non-positive queryTimeout uses
// DefaultQueryTimeout.
func Open(path string, queryTimeout time.Duration) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open chat db: %w", err)
	}
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open chat db: %w", err)
	}
	// Verify connection.
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping chat db: %w", err)
	}
	if queryTimeout <= 0 {
		queryTimeout = DefaultQueryTimeout
	}
	return &DB{DB: db, path: path, timeout: queryTimeout}, nil
}

// dsn builds a read-only SQLite URI for path. The path is escaped so that
// '#' or '?' in a directory name cannot cut off the query parameters.
func dsn(path string) string {
	u := url.URL{
		Scheme:   "file",
		OmitHost: true,
		Path:     path,
		RawQuery: "mode=ro&_busy_timeout=5000",
	}
	return u.String()
}

// Path returns the file the DB was opened from.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.timeout)
}
