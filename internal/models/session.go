package models

import "time"

// ChatSession is the durable record of a conversation session. The live
// stage and draft are owned by the engine; this row tracks identity,
// origin, and lifecycle for recovery, sweeping, and reporting.
type ChatSession struct {
	ID         string `gorm:"primaryKey;size:64"`
	Channel    string `gorm:"size:16;not null;index"` // "cli", "http", "discord", "slack"
	ChannelKey string `gorm:"size:160;index"`         // platform channel:thread key, empty for cli/http
	UserName   string `gorm:"size:64"`
	Stage      string `gorm:"size:24;not null"`
	Status     string `gorm:"size:16;default:active;index"` // active, ended
	LastTurnAt time.Time
	CreatedAt  time.Time
	EndedAt    *time.Time

	Turns []ChatTurn `gorm:"foreignKey:SessionID"`
}

// ChatTurn stores a single message in a session's transcript. Rows are
// append-only and sequence-numbered per session.
type ChatTurn struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	SessionID string `gorm:"size:64;not null;index"`
	Sequence  int    `gorm:"not null"`
	Role      string `gorm:"size:16;not null"` // "user", "system"
	Content   string `gorm:"type:text;not null"`
	CreatedAt time.Time

	Session ChatSession `gorm:"foreignKey:SessionID"`
}
