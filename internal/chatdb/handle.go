package chatdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DefaultService is the handle service watched unless configured otherwise.
const DefaultService = "iMessage"

// ErrHandleNotFound is returned when no handle matches a target.
var ErrHandleNotFound = errors.New("target not found")

// ResolveHandle returns the handle ROWID whose id exactly matches target
// (a phone number like +15551234567 or an email) on the given service.
func (db *DB) ResolveHandle(ctx context.Context, target, service string) (int64, error) {
	if service == "" {
		service = DefaultService
	}
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var id int64
	err := db.QueryRowContext(ctx, `
		SELECT ROWID FROM handle
		WHERE id = ? AND service = ?
		ORDER BY ROWID
		LIMIT 1`, target, service).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s on %s", ErrHandleNotFound, target, service)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve handle %q: %w", target, err)
	}
	return id, nil
}
