package chatdb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/imsgwatch/internal/chatdb/chatdbtest"
)

func openFixture(t *testing.T, f *chatdbtest.Fixture) *DB {
	t.Helper()
	db, err := Open(f.Path, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.db"), 0)
	if err == nil {
		t.Fatal("Open() expected error for missing file")
	}
}

func TestOpenIsReadOnly(t *testing.T) {
	f := chatdbtest.New(t)
	db := openFixture(t, f)

	if _, err := db.Exec(`INSERT INTO handle (id, service) VALUES ('x', 'iMessage')`); err == nil {
		t.Error("write through chatdb.DB should fail on a read-only connection")
	}
}

func TestOpenPathWithURIDelimiters(t *testing.T) {
	f := chatdbtest.New(t)
	f.AddHandle("+15550001111", DefaultService)
	data, err := os.ReadFile(f.Path)
	if err != nil {
		t.Fatal(err)
	}

	parent := t.TempDir()
	dir := filepath.Join(parent, "Backups #2?x")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "chat.db")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}

	db, err := Open(path, time.Second)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ResolveHandle(context.Background(), "+15550001111", ""); err != nil {
		t.Fatalf("ResolveHandle() error = %v, want the copied store to be opened", err)
	}
	if _, err := db.Exec(`INSERT INTO handle (id, service) VALUES ('x', 'iMessage')`); err == nil {
		t.Error("write should fail: connection must stay read-only")
	}

	entries, err := os.ReadDir(parent)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("Open() created stray files next to the store: %v", names)
	}
}

func TestResolveHandle(t *testing.T) {
	f := chatdbtest.New(t)
	f.AddHandle("+15550001111", "SMS")
	want := f.AddHandle("+15550001111", "iMessage")
	f.AddHandle("friend@example.com", "iMessage")
	db := openFixture(t, f)

	got, err := db.ResolveHandle(context.Background(), "+15550001111", "")
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("ResolveHandle() = %d, want %d (iMessage handle)", got, want)
	}
}

func TestResolveHandleNotFound(t *testing.T) {
	f := chatdbtest.New(t)
	f.AddHandle("+15550001111", "SMS")
	db := openFixture(t, f)

	_, err := db.ResolveHandle(context.Background(), "+15550001111", DefaultService)
	if !errors.Is(err, ErrHandleNotFound) {
		t.Fatalf("ResolveHandle() error = %v, want ErrHandleNotFound", err)
	}
	_, err = db.ResolveHandle(context.Background(), "+1555", DefaultService)
	if !errors.Is(err, ErrHandleNotFound) {
		t.Fatalf("prefix match must not resolve, got %v", err)
	}
}

func TestLatestMessagesOrderLimitAndFilter(t *testing.T) {
	f := chatdbtest.New(t)
	h := f.AddHandle("+15550001111", "iMessage")
	other := f.AddHandle("+15550002222", "iMessage")

	m1 := f.AddMessage(chatdbtest.Message{HandleID: h, Text: chatdbtest.Str("one"), Date: 1000})
	f.AddMessage(chatdbtest.Message{HandleID: h, IsFromMe: true, Text: chatdbtest.Str("mine"), Date: 4000})
	m3 := f.AddMessage(chatdbtest.Message{HandleID: h, Text: chatdbtest.Str("three"), Date: 3000})
	m2 := f.AddMessage(chatdbtest.Message{HandleID: h, Text: chatdbtest.Str("two"), Date: 2000})
	f.AddMessage(chatdbtest.Message{HandleID: other, Text: chatdbtest.Str("elsewhere"), Date: 5000})
	db := openFixture(t, f)

	rows, err := db.LatestMessages(context.Background(), Query{HandleID: h, Limit: 2, ExcludeFromMe: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].ROWID.Int64 != m3 || rows[1].ROWID.Int64 != m2 {
		t.Errorf("rows = [%d %d], want [%d %d] (date descending)", rows[0].ROWID.Int64, rows[1].ROWID.Int64, m3, m2)
	}

	rows, err = db.LatestMessages(context.Background(), Query{HandleID: h})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("unbounded query got %d rows, want 4", len(rows))
	}
	if !rows[0].IsFromMe.Bool || rows[3].ROWID.Int64 != m1 {
		t.Errorf("unbounded query should include own messages, oldest last")
	}
}

func TestLatestMessagesScansAllColumns(t *testing.T) {
	f := chatdbtest.New(t)
	h := f.AddHandle("a@example.com", "iMessage")
	f.AddMessage(chatdbtest.Message{
		HandleID:              h,
		AttributedBody:        []byte{0x04, 0x0b},
		ExpressiveSendStyleID: "com.apple.MobileSMS.expressivesend.loud",
		ThreadOriginatorGUID:  "ABC-123",
		AssociatedMessageType: 2000,
		IsAudioMessage:        true,
		Date:                  42,
	})
	db := openFixture(t, f)

	rows, err := db.LatestMessages(context.Background(), Query{HandleID: h, Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	r := rows[0]
	if r.Text.Valid {
		t.Error("text should be NULL")
	}
	if len(r.AttributedBody) != 2 {
		t.Errorf("attributedBody = %v, want 2 bytes", r.AttributedBody)
	}
	if r.ExpressiveSendStyleID.String != "com.apple.MobileSMS.expressivesend.loud" {
		t.Errorf("style = %q", r.ExpressiveSendStyleID.String)
	}
	if !r.ThreadOriginatorGUID.Valid || r.AssociatedMessageType.Int64 != 2000 || !r.IsAudioMessage.Bool || r.Date.Int64 != 42 {
		t.Errorf("unexpected row %+v", r)
	}
}

func TestLatestMessagesChatScope(t *testing.T) {
	f := chatdbtest.New(t)
	h := f.AddHandle("+15550001111", "iMessage")
	groupMember := f.AddHandle("+15550003333", "iMessage")
	chat := f.AddChat("group1", h, groupMember)

	f.AddMessage(chatdbtest.Message{HandleID: h, ChatID: chat, Text: chatdbtest.Str("from target"), Date: 1000})
	byOther := f.AddMessage(chatdbtest.Message{HandleID: groupMember, ChatID: chat, Text: chatdbtest.Str("from member"), Date: 2000})
	db := openFixture(t, f)

	rows, err := db.LatestMessages(context.Background(), Query{HandleID: h, Scope: ScopeChat, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("chat scope got %d rows, want 2", len(rows))
	}
	if rows[0].ROWID.Int64 != byOther {
		t.Errorf("first row = %d, want %d", rows[0].ROWID.Int64, byOther)
	}

	rows, err = db.LatestMessages(context.Background(), Query{HandleID: h, Scope: ScopeHandle, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("handle scope got %d rows, want 1", len(rows))
	}
}

func TestLatestMessagesSeesDeletion(t *testing.T) {
	f := chatdbtest.New(t)
	h := f.AddHandle("+15550001111", "iMessage")
	f.AddMessage(chatdbtest.Message{HandleID: h, Text: chatdbtest.Str("keep"), Date: 1000})
	gone := f.AddMessage(chatdbtest.Message{HandleID: h, Text: chatdbtest.Str("unsend me"), Date: 2000})
	db := openFixture(t, f)

	f.DeleteMessage(gone)

	rows, err := db.LatestMessages(context.Background(), Query{HandleID: h, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Text.String != "keep" {
		t.Errorf("rows after delete = %+v, want only 'keep'", rows)
	}
}

func TestParseScope(t *testing.T) {
	for in, want := range map[string]Scope{"": ScopeHandle, "handle": ScopeHandle, "chat": ScopeChat} {
		got, err := ParseScope(in)
		if err != nil || got != want {
			t.Errorf("ParseScope(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseScope("conversation"); err == nil {
		t.Error("ParseScope(conversation) expected error")
	}
}
