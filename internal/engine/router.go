package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/zulandar/switchboard/internal/backend"
	"github.com/zulandar/switchboard/internal/extract"
	"github.com/zulandar/switchboard/internal/stage"
)

// Gateway is the extraction dependency the router needs. Satisfied by
// *extract.Gateway.
type Gateway interface {
	Extract(ctx context.Context, stageInstructions string, history []extract.Message, userText string) (*extract.Result, error)
}

const (
	replySessionEnded     = "This session has ended. Start a new conversation if you need more help."
	replyFarewell         = "Thanks for contacting support. Goodbye!"
	replyDidNotUnderstand = "Sorry, I didn't catch that. I can help you create a new support ticket or edit an existing one."
	replyClarify          = "Sorry, I didn't quite understand that. Could you rephrase?"
	replyApology          = "Sorry, the support service is temporarily unavailable. Please try again in a moment."
)

// RouterOpts configures a Router. Gateway, Backend, and Stages are
// required; Sink and LogOutput are optional.
type RouterOpts struct {
	Gateway   Gateway
	Backend   backend.TicketBackend
	Stages    *stage.Manager
	Sink      TurnSink
	LogOutput io.Writer
}

// Router drives one conversation turn at a time: it extracts intent,
// dispatches to the stage's workflow, and records the transcript.
type Router struct {
	gateway Gateway
	backend backend.TicketBackend
	stages  *stage.Manager
	sink    TurnSink
	logger  *log.Logger
}

// NewRouter creates a Router from opts.
func NewRouter(opts RouterOpts) (*Router, error) {
	if opts.Gateway == nil {
		return nil, fmt.Errorf("engine: gateway is required")
	}
	if opts.Backend == nil {
		return nil, fmt.Errorf("engine: backend is required")
	}
	if opts.Stages == nil {
		return nil, fmt.Errorf("engine: stage manager is required")
	}
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	return &Router{
		gateway: opts.Gateway,
		backend: opts.Backend,
		stages:  opts.Stages,
		sink:    opts.Sink,
		logger:  log.New(out, "[engine] ", log.LstdFlags),
	}, nil
}

// HandleTurn processes one user turn and returns the reply text. Turns
// for the same session are serialized by the session's mutex.
func (r *Router) HandleTurn(ctx context.Context, s *Session, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Stage == stage.Terminated {
		return replySessionEnded, nil
	}

	instructions, err := r.stages.Instructions(s.Stage)
	if err != nil {
		return "", fmt.Errorf("engine: instructions for stage %s: %w", s.Stage, err)
	}

	result, extractErr := r.gateway.Extract(ctx, instructions, s.History(), text)

	now := time.Now()
	s.LastTurnAt = now
	s.appendTranscript("user", text, now)
	r.record(s.ID, "user", text, now)

	var reply string
	switch {
	case errors.Is(extractErr, extract.ErrMalformedResponse):
		r.logger.Printf("session %s: malformed extraction: %v", s.ID, extractErr)
		reply = replyClarify
	case errors.Is(extractErr, extract.ErrServiceUnavailable):
		r.logger.Printf("session %s: extraction unavailable: %v", s.ID, extractErr)
		reply = replyApology
	case extractErr != nil:
		r.logger.Printf("session %s: extraction failed: %v", s.ID, extractErr)
		reply = replyApology
	default:
		reply = r.dispatch(ctx, s, result)
	}

	replyAt := time.Now()
	s.appendTranscript("system", reply, replyAt)
	r.record(s.ID, "system", reply, replyAt)
	return reply, nil
}

// dispatch applies command priority (exit over create over edit) and
// hands everything else to the current stage's workflow.
func (r *Router) dispatch(ctx context.Context, s *Session, result *extract.Result) string {
	if result.Kind == extract.KindCommand {
		switch result.Command {
		case extract.CommandExit:
			r.transition(s, stage.Terminated)
			return replyFarewell
		case extract.CommandCreate:
			if s.Stage != stage.Create && s.Stage != stage.CreateConfirm {
				if r.transition(s, stage.Create) {
					s.clearDraft()
					return r.createEntry(s)
				}
				return replyDidNotUnderstand
			}
		case extract.CommandEdit:
			if s.Stage != stage.Edit && s.Stage != stage.EditConfirm {
				if r.transition(s, stage.Edit) {
					s.clearDraft()
					return r.editEntry(s)
				}
				return replyDidNotUnderstand
			}
		}
	}

	switch s.Stage {
	case stage.Create, stage.CreateConfirm:
		return r.handleCreate(ctx, s, result)
	case stage.Edit, stage.EditConfirm:
		return r.handleEdit(ctx, s, result)
	default:
		return r.handleMain(s, result)
	}
}

// handleMain covers turns that arrive while no workflow is active.
func (r *Router) handleMain(s *Session, result *extract.Result) string {
	if result.Kind == extract.KindFreeText && result.Text != "" {
		return result.Text
	}
	return replyDidNotUnderstand
}

// transition moves the session to target. An illegal move is logged
// and leaves the stage untouched; the caller substitutes a generic
// reply.
func (r *Router) transition(s *Session, target stage.Stage) bool {
	next, err := r.stages.Transition(s.Stage, target)
	if err != nil {
		r.logger.Printf("session %s: %v", s.ID, err)
		return false
	}
	s.Stage = next
	return true
}

// record delivers a turn to the sink, best-effort.
func (r *Router) record(sessionID, role, content string, at time.Time) {
	if r.sink == nil {
		return
	}
	if err := r.sink.RecordTurn(sessionID, role, content, at); err != nil {
		r.logger.Printf("session %s: turn sink: %v", sessionID, err)
	}
}
