package message

import (
	"database/sql"
	"time"
)

// Row is one raw row of the chat.db message table as scanned by chatdb.
// Required columns are nullable here so that a schema mismatch can be
// reported by Normalize instead of failing inside Scan.
type Row struct {
	ROWID                 sql.NullInt64
	IsFromMe              sql.NullBool
	Text                  sql.NullString
	AttributedBody        []byte
	ExpressiveSendStyleID sql.NullString
	ThreadOriginatorGUID  sql.NullString
	AssociatedMessageType sql.NullInt64
	IsAudioMessage        sql.NullBool
	Date                  sql.NullInt64 // nanoseconds since 2001-01-01 UTC
}

// Record is the canonical form of a message. Records are built by Normalize
// and never mutated afterwards.
type Record struct {
	ID             int64
	IsFromMe       bool
	Text           *string
	InferredText   *string
	TextCombined   *string
	Timestamp      time.Time
	IsAudioMessage bool
	MessageEffect  string
	Reaction       string
	IsThreadReply  bool
}

// Equal reports whether every field of r and o matches.
func (r Record) Equal(o Record) bool {
	return r.ID == o.ID &&
		r.IsFromMe == o.IsFromMe &&
		equalText(r.Text, o.Text) &&
		equalText(r.InferredText, o.InferredText) &&
		equalText(r.TextCombined, o.TextCombined) &&
		r.Timestamp.Equal(o.Timestamp) &&
		r.IsAudioMessage == o.IsAudioMessage &&
		r.MessageEffect == o.MessageEffect &&
		r.Reaction == o.Reaction &&
		r.IsThreadReply == o.IsThreadReply
}

func equalText(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Value returns the string behind p, or "" when p is nil.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
