// Package engine implements the conversation engine: per-session state,
// the turn router, and the create and edit ticket workflows.
package engine

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/zulandar/switchboard/internal/extract"
	"github.com/zulandar/switchboard/internal/stage"
)

// GenerateSessionID creates a random session ID like "cs-4be91f0a".
func GenerateSessionID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "cs-00000000"
	}
	return "cs-" + hex.EncodeToString(b)
}

// Session holds everything the engine mutates for one conversation.
// The embedded mutex serializes turns; no two turns for the same
// session ever interleave.
type Session struct {
	mu sync.Mutex

	ID         string
	Stage      stage.Stage
	Draft      *TicketDraft
	Transcript []TranscriptEntry

	// Candidates holds device matches pending disambiguation after a
	// multi-device lookup sent the session back to confirmation.
	Candidates []DeviceCandidate
	// DeviceID is set once a lookup or a disambiguation pick resolved
	// the draft's serial number to a single device.
	DeviceID *uint

	CreatedAt  time.Time
	LastTurnAt time.Time
}

// TranscriptEntry is one timestamped turn in the in-memory transcript.
type TranscriptEntry struct {
	Role    string
	Content string
	At      time.Time
}

// DeviceCandidate is one device offered to the user for disambiguation.
type DeviceCandidate struct {
	ID           uint
	SerialNumber string
	Name         string
	Location     string
}

// NewSession creates a session in the main stage.
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:        GenerateSessionID(),
		Stage:     stage.Main,
		Draft:     &TicketDraft{},
		CreatedAt: now,
	}
}

// appendTranscript records one turn in the in-memory transcript.
func (s *Session) appendTranscript(role, content string, at time.Time) {
	s.Transcript = append(s.Transcript, TranscriptEntry{Role: role, Content: content, At: at})
}

// History maps the transcript down to the message shape the extraction
// gateway sends to the model.
func (s *Session) History() []extract.Message {
	history := make([]extract.Message, len(s.Transcript))
	for i, entry := range s.Transcript {
		history[i] = extract.Message{Role: entry.Role, Content: entry.Content}
	}
	return history
}

// clearDraft resets the draft and any pending device resolution state.
func (s *Session) clearDraft() {
	s.Draft = &TicketDraft{}
	s.Candidates = nil
	s.DeviceID = nil
}
