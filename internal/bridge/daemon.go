package bridge

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/engine"
)

// Daemon is the chat-platform bridge process. It connects to a
// platform via an Adapter, pumps inbound messages to the conversation
// engine, and runs cron-driven maintenance (idle sweep, daily digest).
type Daemon struct {
	db      *gorm.DB
	cfg     *config.Config
	adapter Adapter
	engine  *engine.Router
	out     io.Writer
}

// DaemonOpts holds parameters for creating a new Daemon.
type DaemonOpts struct {
	DB      *gorm.DB
	Config  *config.Config
	Adapter Adapter
	Engine  *engine.Router
	Out     io.Writer // defaults to os.Stdout
}

// NewDaemon creates a Daemon with the given options.
func NewDaemon(opts DaemonOpts) (*Daemon, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("bridge: db is required")
	}
	if opts.Config == nil {
		return nil, fmt.Errorf("bridge: config is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("bridge: adapter is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("bridge: engine is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Daemon{
		db:      opts.DB,
		cfg:     opts.Config,
		adapter: opts.Adapter,
		engine:  opts.Engine,
		out:     out,
	}, nil
}

// Run starts the bridge daemon. It connects the adapter, builds the
// router and session table, and blocks until the context is cancelled.
// On shutdown it closes the adapter gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	fmt.Fprintf(d.out, "Bridge connecting...\n")
	if err := d.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("bridge: connect: %w", err)
	}

	var botUserID string
	if bui, ok := d.adapter.(BotUserIDer); ok {
		botUserID = bui.BotUserID()
	}

	table, err := NewSessionTable(d.db)
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("bridge: build session table: %w", err)
	}

	router, err := NewRouter(RouterOpts{
		Table:     table,
		Engine:    d.engine,
		Adapter:   d.adapter,
		BotUserID: botUserID,
		Out:       d.out,
	})
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("bridge: build router: %w", err)
	}

	inbound, err := d.adapter.Listen(ctx)
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("bridge: listen: %w", err)
	}

	go d.runIdleSweep(ctx, table)
	go d.runDigestScheduler(ctx)

	fmt.Fprintf(d.out, "Bridge online\n")

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(d.out, "Bridge shutting down...\n")
			if err := d.adapter.Close(); err != nil {
				log.Printf("bridge: close adapter: %v", err)
			}
			fmt.Fprintf(d.out, "Bridge stopped\n")
			return nil

		case msg, ok := <-inbound:
			if !ok {
				fmt.Fprintf(d.out, "Bridge inbound channel closed\n")
				return nil
			}
			// Synchronous dispatch keeps turns in arrival order; the
			// adapters buffer inbound messages while a turn runs.
			router.Handle(ctx, msg)
		}
	}
}

// runIdleSweep periodically ends sessions that have been idle longer
// than the configured timeout.
func (d *Daemon) runIdleSweep(ctx context.Context, table *SessionTable) {
	timeout := time.Duration(d.cfg.Bridge.IdleTimeoutMin) * time.Minute
	if timeout <= 0 {
		return
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := table.SweepIdle(timeout)
			if err != nil {
				log.Printf("bridge: idle sweep: %v", err)
				continue
			}
			if swept > 0 {
				fmt.Fprintf(d.out, "bridge: swept %d idle session(s)\n", swept)
			}
		}
	}
}

// runDigestScheduler fires the daily digest on the configured cron
// expression. It returns immediately when no expression is set.
func (d *Daemon) runDigestScheduler(ctx context.Context) {
	expr := d.cfg.Bridge.DigestCron
	if expr == "" {
		return
	}

	wait := nextCronDuration(expr)
	if wait <= 0 {
		log.Printf("bridge: invalid digest cron %q; digest disabled", expr)
		return
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			d.fireDigest(ctx)
			if wait = nextCronDuration(expr); wait > 0 {
				timer.Reset(wait)
			}
		}
	}
}

// fireDigest builds and sends a single daily digest (best-effort).
func (d *Daemon) fireDigest(ctx context.Context) {
	text, err := buildDailyDigest(d.db, time.Now())
	if err != nil {
		log.Printf("bridge: daily digest: %v", err)
		return
	}
	if text == "" {
		// No activity, suppress digest.
		return
	}
	if err := d.adapter.Send(ctx, OutboundMessage{
		ChannelID: d.cfg.Bridge.ChannelID,
		Text:      text,
	}); err != nil {
		log.Printf("bridge: send digest: %v", err)
	}
}
