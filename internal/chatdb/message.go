package chatdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/matheus3301/imsgwatch/internal/message"
)

// Scope selects which messages belong to a target.
type Scope string

const (
	// ScopeHandle matches messages whose handle_id is the target handle.
	ScopeHandle Scope = "handle"
	// ScopeChat matches every message in chats the target handle belongs to.
	ScopeChat Scope = "chat"
)

// ParseScope validates a configured scope. Empty means ScopeHandle.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "", ScopeHandle:
		return ScopeHandle, nil
	case ScopeChat:
		return ScopeChat, nil
	default:
		return "", fmt.Errorf("unknown scope %q: want handle or chat", s)
	}
}

// Query describes one bounded fetch of a target's latest messages.
type Query struct {
	HandleID      int64
	Limit         int // <= 0 returns every message
	ExcludeFromMe bool
	Scope         Scope
}

const messageColumns = `m.ROWID, m.is_from_me, m.text, m.attributedBody, m.expressive_send_style_id,
	m.thread_originator_guid, m.associated_message_type, m.is_audio_message, m.date`

// LatestMessages returns raw rows for q, most recent first.
func (db *DB) LatestMessages(ctx context.Context, q Query) ([]message.Row, error) {
	var b strings.Builder
	b.WriteString("SELECT " + messageColumns + " FROM message m")
	if q.Scope == ScopeChat {
		b.WriteString(`
		WHERE m.ROWID IN (
			SELECT cmj.message_id FROM chat_message_join cmj
			JOIN chat_handle_join chj ON chj.chat_id = cmj.chat_id
			WHERE chj.handle_id = ?)`)
	} else {
		b.WriteString(" WHERE m.handle_id = ?")
	}
	args := []any{q.HandleID}
	if q.ExcludeFromMe {
		b.WriteString(" AND m.is_from_me = 0")
	}
	b.WriteString(" ORDER BY m.date DESC, m.ROWID DESC")
	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query messages for handle %d: %w", q.HandleID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []message.Row
	for rows.Next() {
		var r message.Row
		if err := rows.Scan(
			&r.ROWID, &r.IsFromMe, &r.Text, &r.AttributedBody, &r.ExpressiveSendStyleID,
			&r.ThreadOriginatorGUID, &r.AssociatedMessageType, &r.IsAudioMessage, &r.Date,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
