package engine

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/zulandar/switchboard/internal/models"
)

// TurnSink receives every transcript turn the engine records. Sinks
// are best-effort: failures are logged by callers and never block or
// fail a turn.
type TurnSink interface {
	RecordTurn(sessionID, role, content string, at time.Time) error
}

// DBSink persists turns as ChatTurn rows with per-session sequence
// numbers.
type DBSink struct {
	db *gorm.DB
}

// NewDBSink creates a DBSink. The db handle is required.
func NewDBSink(db *gorm.DB) (*DBSink, error) {
	if db == nil {
		return nil, fmt.Errorf("engine: db is required")
	}
	return &DBSink{db: db}, nil
}

// RecordTurn appends a ChatTurn row for the session.
func (s *DBSink) RecordTurn(sessionID, role, content string, at time.Time) error {
	var maxSeq int64
	err := s.db.Model(&models.ChatTurn{}).
		Where("session_id = ?", sessionID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&maxSeq).Error
	if err != nil {
		return fmt.Errorf("engine: next turn sequence: %w", err)
	}

	turn := models.ChatTurn{
		SessionID: sessionID,
		Sequence:  int(maxSeq) + 1,
		Role:      role,
		Content:   content,
		CreatedAt: at,
	}
	if err := s.db.Create(&turn).Error; err != nil {
		return fmt.Errorf("engine: record turn: %w", err)
	}
	return nil
}

// MultiSink fans a turn out to several sinks, logging per-sink
// failures and never returning one.
type MultiSink struct {
	sinks []TurnSink
}

// NewMultiSink combines sinks. Nil entries are skipped.
func NewMultiSink(sinks ...TurnSink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// RecordTurn delivers the turn to each sink.
func (m *MultiSink) RecordTurn(sessionID, role, content string, at time.Time) error {
	for _, s := range m.sinks {
		if err := s.RecordTurn(sessionID, role, content, at); err != nil {
			log.Printf("engine: turn sink failed for session %s: %v", sessionID, err)
		}
	}
	return nil
}
