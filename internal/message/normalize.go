// Package message turns raw chat.db message rows into canonical records.
package message

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMissingField is returned when a row lacks a column every message has,
// which means the store schema is not the one we expect.
var ErrMissingField = errors.New("missing required field")

// Epoch is the reference date of chat.db timestamps.
var Epoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// Normalize builds a Record from a raw row. Times are converted into loc
// (time.Local when nil).
func Normalize(row Row, loc *time.Location) (Record, error) {
	switch {
	case !row.ROWID.Valid:
		return Record{}, fmt.Errorf("normalize message: %w: ROWID", ErrMissingField)
	case !row.IsFromMe.Valid:
		return Record{}, fmt.Errorf("normalize message %d: %w: is_from_me", row.ROWID.Int64, ErrMissingField)
	case !row.Date.Valid:
		return Record{}, fmt.Errorf("normalize message %d: %w: date", row.ROWID.Int64, ErrMissingField)
	}
	if loc == nil {
		loc = time.Local
	}

	rec := Record{
		ID:             row.ROWID.Int64,
		IsFromMe:       row.IsFromMe.Bool,
		Timestamp:      Timestamp(row.Date.Int64, loc),
		IsAudioMessage: row.IsAudioMessage.Valid && row.IsAudioMessage.Bool,
		MessageEffect:  LabelNone,
		Reaction:       LabelNone,
		IsThreadReply:  row.ThreadOriginatorGUID.Valid,
	}

	if row.Text.Valid {
		rec.Text = stripCR(row.Text.String)
	}
	if text, ok := DecodeAttributedBody(row.AttributedBody); ok {
		rec.InferredText = stripCR(text)
	}
	rec.TextCombined = rec.Text
	if rec.TextCombined == nil {
		rec.TextCombined = rec.InferredText
	}

	if row.ExpressiveSendStyleID.Valid {
		rec.MessageEffect = EffectLabel(row.ExpressiveSendStyleID.String)
	}
	if row.AssociatedMessageType.Valid {
		rec.Reaction = ReactionLabel(row.AssociatedMessageType.Int64)
	}
	return rec, nil
}

// NormalizeAll normalizes rows in order, stopping at the first failure.
func NormalizeAll(rows []Row, loc *time.Location) ([]Record, error) {
	recs := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := Normalize(row, loc)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Timestamp converts a chat.db date (nanoseconds since Epoch) to a wall-clock
// time in loc, at second precision.
func Timestamp(date int64, loc *time.Location) time.Time {
	return Epoch.Add(time.Duration(date)).Truncate(time.Second).In(loc)
}

func stripCR(s string) *string {
	s = strings.ReplaceAll(s, "\r", "")
	return &s
}
