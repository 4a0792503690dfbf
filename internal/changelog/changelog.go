// Package changelog appends stale snapshots to the human-readable change log.
package changelog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/matheus3301/imsgwatch/internal/message"
	"github.com/matheus3301/imsgwatch/internal/snapshot"
)

const (
	headerLayout = "2006-01-02 15:04:05.000000"
	recordLayout = "2006-01-02 15:04:05"
)

// Writer appends change events to a file. Each Write opens the file in
// append mode and closes it again, so every event is on disk before Write
// returns and prior content is never touched.
type Writer struct {
	path string
	now  func() time.Time
}

// New returns a Writer for path, creating parent directories.
func New(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create change log dir: %w", err)
	}
	return &Writer{path: path, now: time.Now}, nil
}

// Path returns the log file location.
func (w *Writer) Path() string {
	return w.path
}

// Check verifies the log can be opened for appending.
func (w *Writer) Check() error {
	f, err := w.open()
	if err != nil {
		return err
	}
	return f.Close()
}

// Write appends one change event for target listing every record of stale.
func (w *Writer) Write(target string, stale snapshot.Snapshot) error {
	f, err := w.open()
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	err = Format(bw, target, stale, w.now())
	if err == nil {
		err = bw.Flush()
	}
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write change log %s: %w", w.path, err)
	}
	return nil
}

func (w *Writer) open() (*os.File, error) {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("open change log: %w", err)
	}
	return f, nil
}

// Format renders one change event.
func Format(w io.Writer, target string, snap snapshot.Snapshot, now time.Time) error {
	if _, err := fmt.Fprintf(w, "===%s===\n", now.Format(headerLayout)); err != nil {
		return err
	}
	for _, r := range snap {
		if err := formatRecord(w, target, r); err != nil {
			return err
		}
	}
	return nil
}

func formatRecord(w io.Writer, target string, r message.Record) error {
	_, err := fmt.Fprintf(w, ">>> %s %s\n"+
		"\tText combined: %s\n"+
		"\tText: %s\n"+
		"\tInferred Text: %s\n"+
		"\tIs Audio Message: %s\n"+
		"\tMessage Effect: %s\n"+
		"\tReaction: %s\n"+
		"\tIs Thread Reply: %s\n",
		target, r.Timestamp.Format(recordLayout),
		message.Value(r.TextCombined),
		message.Value(r.Text),
		message.Value(r.InferredText),
		strconv.FormatBool(r.IsAudioMessage),
		r.MessageEffect,
		r.Reaction,
		strconv.FormatBool(r.IsThreadReply),
	)
	return err
}
