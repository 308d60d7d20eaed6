// Package transcript writes per-session conversation logs to disk.
package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Writer appends conversation turns to one file per session, named
// chat_<session>.log. It implements engine.TurnSink.
type Writer struct {
	dir string

	mu     sync.Mutex
	opened map[string]bool
}

// NewWriter creates a Writer rooted at dir, creating it if needed.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("transcript: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("transcript: create directory: %w", err)
	}
	return &Writer{dir: dir, opened: make(map[string]bool)}, nil
}

// Path returns the transcript file path for a session.
func (w *Writer) Path(sessionID string) string {
	return filepath.Join(w.dir, "chat_"+sessionID+".log")
}

// RecordTurn appends one turn. The first turn of a session writes a
// header line.
func (w *Writer) RecordTurn(sessionID, role, content string, at time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.Path(sessionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("transcript: open %s: %w", w.Path(sessionID), err)
	}
	defer f.Close()

	if !w.opened[sessionID] {
		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("transcript: stat: %w", err)
		}
		if info.Size() == 0 {
			fmt.Fprintf(f, "=== session %s started %s ===\n", sessionID, at.Format(time.RFC3339))
		}
		w.opened[sessionID] = true
	}

	if _, err := fmt.Fprintf(f, "[%s] %s: %s\n", at.Format(time.RFC3339), role, content); err != nil {
		return fmt.Errorf("transcript: write turn: %w", err)
	}
	return nil
}

// Close writes a footer to a session's transcript. Further turns for
// the session reopen it without a new header.
func (w *Writer) Close(sessionID string, at time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.Path(sessionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("transcript: open %s: %w", w.Path(sessionID), err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "=== session %s ended %s ===\n", sessionID, at.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("transcript: write footer: %w", err)
	}
	delete(w.opened, sessionID)
	return nil
}
