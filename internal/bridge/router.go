package bridge

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/zulandar/switchboard/internal/engine"
)

// Router feeds inbound chat messages to the conversation engine and
// sends the replies back through the adapter.
type Router struct {
	table     *SessionTable
	engine    *engine.Router
	adapter   Adapter
	botUserID string // the bot's own user ID (to filter self-messages)
	out       io.Writer
}

// RouterOpts holds parameters for creating a Router.
type RouterOpts struct {
	Table     *SessionTable
	Engine    *engine.Router
	Adapter   Adapter
	BotUserID string    // bot's user ID for self-message filtering
	Out       io.Writer // defaults to os.Stdout
}

// NewRouter creates a Router.
func NewRouter(opts RouterOpts) (*Router, error) {
	if opts.Table == nil {
		return nil, fmt.Errorf("bridge: router: session table is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("bridge: router: engine is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("bridge: router: adapter is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Router{
		table:     opts.Table,
		engine:    opts.Engine,
		adapter:   opts.Adapter,
		botUserID: opts.BotUserID,
		out:       out,
	}, nil
}

// Handle routes a single inbound message: self-messages are dropped,
// everything else goes to the channel/thread's engine session. The
// engine serializes turns per session, so concurrent Handle calls for
// the same thread never interleave a conversation.
func (r *Router) Handle(ctx context.Context, msg InboundMessage) {
	if r.isSelfMessage(msg) {
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	fmt.Fprintf(r.out, "bridge: router: recv [ch=%s thread=%s user=%s] %q\n",
		msg.ChannelID, msg.ThreadID, msg.UserName, truncate(text, 80))

	session, err := r.table.GetOrCreate(msg.Platform, msg.ChannelID, msg.ThreadID, msg.UserName)
	if err != nil {
		log.Printf("bridge: router: session for %s: %v", sessionKey(msg.ChannelID, msg.ThreadID), err)
		return
	}

	reply, err := r.engine.HandleTurn(ctx, session, text)
	if err != nil {
		log.Printf("bridge: router: handle turn: %v", err)
		return
	}

	if err := r.table.Sync(session); err != nil {
		log.Printf("bridge: router: %v", err)
	}

	for _, chunk := range chunkMessage(reply, maxMessageLen) {
		if err := r.adapter.Send(ctx, OutboundMessage{
			ChannelID: msg.ChannelID,
			ThreadID:  msg.ThreadID,
			Text:      chunk,
		}); err != nil {
			log.Printf("bridge: router: send reply: %v", err)
			return
		}
	}
}

// isSelfMessage returns true if the message is from the bot itself.
func (r *Router) isSelfMessage(msg InboundMessage) bool {
	return r.botUserID != "" && msg.UserID == r.botUserID
}

// truncate returns s truncated to maxLen with "..." appended if needed.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
