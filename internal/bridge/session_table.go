package bridge

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/zulandar/switchboard/internal/engine"
	"github.com/zulandar/switchboard/internal/models"
	"github.com/zulandar/switchboard/internal/stage"
)

// SessionTable maps channel:thread keys to live engine sessions and
// mirrors their lifecycle into ChatSession rows.
type SessionTable struct {
	db *gorm.DB

	mu       sync.RWMutex
	sessions map[string]*engine.Session
}

// NewSessionTable creates a SessionTable. The db handle is required.
func NewSessionTable(db *gorm.DB) (*SessionTable, error) {
	if db == nil {
		return nil, fmt.Errorf("bridge: db is required")
	}
	return &SessionTable{
		db:       db,
		sessions: make(map[string]*engine.Session),
	}, nil
}

// sessionKey builds the lookup key. Top-level channel messages use the
// channel ID as the thread key so follow-ups find the session.
func sessionKey(channelID, threadID string) string {
	if threadID == "" {
		threadID = channelID
	}
	return channelID + ":" + threadID
}

// Get returns the live session for a channel/thread, if any.
func (t *SessionTable) Get(channelID, threadID string) (*engine.Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[sessionKey(channelID, threadID)]
	return s, ok
}

// GetOrCreate returns the live session for a channel/thread, creating
// one (and its ChatSession row) if none exists.
func (t *SessionTable) GetOrCreate(platform, channelID, threadID, userName string) (*engine.Session, error) {
	key := sessionKey(channelID, threadID)

	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.sessions[key]; ok {
		return s, nil
	}

	s := engine.NewSession()
	row := models.ChatSession{
		ID:         s.ID,
		Channel:    platform,
		ChannelKey: key,
		UserName:   userName,
		Stage:      string(s.Stage),
		Status:     "active",
		LastTurnAt: time.Now(),
	}
	if err := t.db.Create(&row).Error; err != nil {
		return nil, fmt.Errorf("bridge: create session row: %w", err)
	}

	t.sessions[key] = s
	return s, nil
}

// Sync mirrors a session's stage and last-turn time to its row, ending
// the row when the session terminated.
func (t *SessionTable) Sync(s *engine.Session) error {
	updates := map[string]interface{}{
		"stage":        string(s.Stage),
		"last_turn_at": s.LastTurnAt,
	}
	if s.Stage == stage.Terminated {
		now := time.Now()
		updates["status"] = "ended"
		updates["ended_at"] = &now
	}
	if err := t.db.Model(&models.ChatSession{}).Where("id = ?", s.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("bridge: sync session row: %w", err)
	}
	return nil
}

// Remove drops a session from the in-memory table.
func (t *SessionTable) Remove(channelID, threadID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, sessionKey(channelID, threadID))
}

// SweepIdle ends sessions whose last turn is older than the timeout.
// It returns the number of sessions swept.
func (t *SessionTable) SweepIdle(timeout time.Duration) (int, error) {
	cutoff := time.Now().Add(-timeout)

	t.mu.Lock()
	var sweptIDs []string
	for key, s := range t.sessions {
		last := s.LastTurnAt
		if last.IsZero() {
			last = s.CreatedAt
		}
		if last.Before(cutoff) {
			sweptIDs = append(sweptIDs, s.ID)
			delete(t.sessions, key)
		}
	}
	t.mu.Unlock()

	if len(sweptIDs) == 0 {
		return 0, nil
	}

	now := time.Now()
	err := t.db.Model(&models.ChatSession{}).
		Where("id IN ?", sweptIDs).
		Updates(map[string]interface{}{
			"status":   "ended",
			"ended_at": &now,
		}).Error
	if err != nil {
		return len(sweptIDs), fmt.Errorf("bridge: sweep idle sessions: %w", err)
	}
	return len(sweptIDs), nil
}

// Len reports how many live sessions the table holds.
func (t *SessionTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}
