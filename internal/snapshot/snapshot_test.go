package snapshot

import (
	"slices"
	"testing"
	"time"

	"github.com/matheus3301/imsgwatch/internal/message"
)

func rec(id int64, text string) message.Record {
	return message.Record{
		ID:            id,
		Text:          &text,
		TextCombined:  &text,
		Timestamp:     time.Date(2024, 5, 1, 12, 0, int(id), 0, time.UTC),
		MessageEffect: message.LabelNone,
		Reaction:      message.LabelNone,
	}
}

func TestEqual(t *testing.T) {
	a, b, c := rec(5, "a"), rec(4, "b"), rec(6, "c")

	tests := []struct {
		name string
		x, y Snapshot
		want bool
	}{
		{"identical", Snapshot{a, b}, Snapshot{rec(5, "a"), rec(4, "b")}, true},
		{"both empty", nil, Snapshot{}, true},
		{"reordered", Snapshot{a, b}, Snapshot{b, a}, false},
		{"replaced", Snapshot{a, b}, Snapshot{a, c}, false},
		{"shorter", Snapshot{a, b}, Snapshot{a}, false},
		{"edited text", Snapshot{a}, Snapshot{rec(5, "a edited")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.x, tt.y); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
			if got := Changed(tt.x, tt.y); got == tt.want {
				t.Errorf("Changed() = %v, want %v", got, !tt.want)
			}
		})
	}
}

func TestMissingRecords(t *testing.T) {
	a, b, c := rec(5, "a"), rec(4, "b"), rec(6, "c")

	if MissingRecords(Snapshot{a, b}, Snapshot{b, a}) {
		t.Error("reordering should not count as missing")
	}
	if MissingRecords(Snapshot{a}, Snapshot{c, a}) {
		t.Error("a new record alone should not count as missing")
	}
	if !MissingRecords(Snapshot{a, b}, Snapshot{a, c}) {
		t.Error("b dropped out of the window, want missing")
	}
}

func TestComparatorByName(t *testing.T) {
	for _, name := range []string{"", "exact", "missing"} {
		if _, err := ComparatorByName(name); err != nil {
			t.Errorf("ComparatorByName(%q) error = %v", name, err)
		}
	}
	if _, err := ComparatorByName("set"); err == nil {
		t.Error("ComparatorByName(set) expected error")
	}
}

func TestStorePutReturnsPrevious(t *testing.T) {
	s := NewStore()
	first := Snapshot{rec(5, "a"), rec(4, "b")}
	second := Snapshot{rec(6, "c"), rec(5, "a")}

	if prev := s.Put("+15550001111", first); prev != nil {
		t.Errorf("first Put() returned %v, want nil", prev)
	}
	prev := s.Put("+15550001111", second)
	if !Equal(prev, first) {
		t.Errorf("second Put() returned %v, want first snapshot", prev.IDs())
	}

	got, ok := s.Get("+15550001111")
	if !ok || !Equal(got, second) {
		t.Errorf("Get() = %v, %v; want second snapshot", got.IDs(), ok)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (one snapshot per target)", s.Len())
	}
}

func TestStoreTargetsKeepInsertionOrder(t *testing.T) {
	s := NewStore()
	s.Put("b@example.com", nil)
	s.Put("a@example.com", nil)
	s.Put("b@example.com", Snapshot{rec(1, "x")})

	want := []string{"b@example.com", "a@example.com"}
	if got := s.Targets(); !slices.Equal(got, want) {
		t.Errorf("Targets() = %v, want %v", got, want)
	}
}
