// Package chatdbtest builds chat.db-shaped databases for tests.
package chatdbtest

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/matheus3301/imsgwatch/internal/chatdb/chatdbtest/migrations"
	_ "github.com/mattn/go-sqlite3"
)

// Fixture is a writable chat.db in a test's temp dir.
type Fixture struct {
	Path string
	db   *sql.DB
	t    testing.TB
}

// Message describes a row to insert. Empty optional strings are stored as NULL.
type Message struct {
	HandleID              int64
	ChatID                int64 // joined through chat_message_join when non-zero
	IsFromMe              bool
	Text                  *string
	AttributedBody        []byte
	ExpressiveSendStyleID string
	ThreadOriginatorGUID  string
	AssociatedMessageType int64
	IsAudioMessage        bool
	Date                  int64
}

// New creates and migrates a fresh fixture database.
func New(t testing.TB) *Fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := migrateUp(db); err != nil {
		t.Fatal(err)
	}
	return &Fixture{Path: path, db: db, t: t}
}

func migrateUp(db *sql.DB) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("migration instance: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration up: %w", err)
	}
	return nil
}

// AddHandle inserts a handle and returns its ROWID.
func (f *Fixture) AddHandle(id, service string) int64 {
	f.t.Helper()
	return f.insert(`INSERT INTO handle (id, service) VALUES (?, ?)`, id, service)
}

// AddChat inserts a chat containing the given handles and returns its ROWID.
func (f *Fixture) AddChat(identifier string, handleIDs ...int64) int64 {
	f.t.Helper()
	chatID := f.insert(`INSERT INTO chat (guid, chat_identifier, service_name, style) VALUES (?, ?, 'iMessage', 45)`,
		"iMessage;-;"+identifier, identifier)
	for _, h := range handleIDs {
		f.insert(`INSERT INTO chat_handle_join (chat_id, handle_id) VALUES (?, ?)`, chatID, h)
	}
	return chatID
}

// AddMessage inserts a message and returns its ROWID.
func (f *Fixture) AddMessage(m Message) int64 {
	f.t.Helper()
	id := f.insert(`
		INSERT INTO message (guid, text, handle_id, service, date, is_from_me, is_audio_message,
			attributedBody, expressive_send_style_id, associated_message_type, thread_originator_guid)
		VALUES (?, ?, ?, 'iMessage', ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), m.Text, m.HandleID, m.Date, m.IsFromMe, m.IsAudioMessage,
		m.AttributedBody, nullable(m.ExpressiveSendStyleID), m.AssociatedMessageType, nullable(m.ThreadOriginatorGUID))
	if m.ChatID != 0 {
		f.insert(`INSERT INTO chat_message_join (chat_id, message_id, message_date) VALUES (?, ?, ?)`, m.ChatID, id, m.Date)
	}
	return id
}

// DeleteMessage removes a message the way Messages does when it is unsent.
func (f *Fixture) DeleteMessage(rowID int64) {
	f.t.Helper()
	f.exec(`DELETE FROM chat_message_join WHERE message_id = ?`, rowID)
	f.exec(`DELETE FROM message WHERE ROWID = ?`, rowID)
}

// SetText rewrites a message body, as an edit does.
func (f *Fixture) SetText(rowID int64, text string) {
	f.t.Helper()
	f.exec(`UPDATE message SET text = ? WHERE ROWID = ?`, text, rowID)
}

func (f *Fixture) insert(query string, args ...any) int64 {
	f.t.Helper()
	res, err := f.db.Exec(query, args...)
	if err != nil {
		f.t.Fatalf("chatdbtest: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		f.t.Fatalf("chatdbtest: %v", err)
	}
	return id
}

func (f *Fixture) exec(query string, args ...any) {
	f.t.Helper()
	if _, err := f.db.Exec(query, args...); err != nil {
		f.t.Fatalf("chatdbtest: %v", err)
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Str returns a pointer to s, for Message.Text.
func Str(s string) *string {
	return &s
}
