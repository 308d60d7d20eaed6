// Package bridge connects the conversation engine to chat platforms
// (Discord, Slack) through a common Adapter interface.
package bridge

import (
	"context"
	"time"
)

// Adapter is the interface platform-specific implementations satisfy.
// Each adapter owns connection management and message transport for a
// single chat platform.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound messages. The channel is
	// closed when the context is cancelled or the adapter is closed.
	// Listen must only be called after Connect.
	Listen(ctx context.Context) (<-chan InboundMessage, error)

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg OutboundMessage) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// InboundMessage is a message received from the chat platform.
type InboundMessage struct {
	Platform  string    // e.g. "slack", "discord"
	ChannelID string    // platform-specific channel identifier
	ThreadID  string    // thread identifier (empty if top-level)
	UserID    string    // platform-specific user identifier
	UserName  string    // human-readable username
	Text      string    // raw message text
	Timestamp time.Time // when the message was sent
}

// OutboundMessage is a message to be sent to the chat platform.
type OutboundMessage struct {
	ChannelID string // target channel
	ThreadID  string // thread to reply in (empty for top-level)
	Text      string
}

// BotUserIDer is an optional interface adapters implement to expose
// the bot's own user ID, enabling self-message filtering.
type BotUserIDer interface {
	BotUserID() string
}
