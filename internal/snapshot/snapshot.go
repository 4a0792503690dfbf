// Package snapshot holds the most recent observation of each watched target.
package snapshot

import (
	"fmt"

	"github.com/matheus3301/imsgwatch/internal/message"
)

// Snapshot is the latest window of records for one target, most recent first.
type Snapshot []message.Record

// IDs returns the record IDs in snapshot order.
func (s Snapshot) IDs() []int64 {
	ids := make([]int64, len(s))
	for i, r := range s {
		ids[i] = r.ID
	}
	return ids
}

// Comparator reports whether next differs from prev enough to log prev.
type Comparator func(prev, next Snapshot) bool

// Changed is the default comparator: any difference in Equal counts.
func Changed(prev, next Snapshot) bool {
	return !Equal(prev, next)
}

// Equal compares two snapshots position by position. The same records in a
// different order are not equal.
func Equal(a, b Snapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// MissingRecords reports a change only when some record of prev is absent
// from next. Reordering and edits of surviving records are ignored.
func MissingRecords(prev, next Snapshot) bool {
	seen := make(map[int64]struct{}, len(next))
	for _, r := range next {
		seen[r.ID] = struct{}{}
	}
	for _, r := range prev {
		if _, ok := seen[r.ID]; !ok {
			return true
		}
	}
	return false
}

// ComparatorByName resolves a configured comparison mode.
func ComparatorByName(name string) (Comparator, error) {
	switch name {
	case "", "exact":
		return Changed, nil
	case "missing":
		return MissingRecords, nil
	default:
		return nil, fmt.Errorf("unknown comparison %q: want exact or missing", name)
	}
}

// Store keeps exactly one snapshot per target. It is not safe for
// concurrent use; the watch loop is its only user.
type Store struct {
	snaps map[string]Snapshot
	order []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{snaps: make(map[string]Snapshot)}
}

// Get returns the snapshot held for target.
func (s *Store) Get(target string) (Snapshot, bool) {
	snap, ok := s.snaps[target]
	return snap, ok
}

// Put replaces the snapshot for target and returns the previous one.
func (s *Store) Put(target string, snap Snapshot) Snapshot {
	prev, ok := s.snaps[target]
	if !ok {
		s.order = append(s.order, target)
	}
	s.snaps[target] = snap
	return prev
}

// Targets returns the stored targets in insertion order.
func (s *Store) Targets() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of targets held.
func (s *Store) Len() int {
	return len(s.snaps)
}
