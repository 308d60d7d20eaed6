package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/zulandar/switchboard/internal/backend"
	"github.com/zulandar/switchboard/internal/extract"
	"github.com/zulandar/switchboard/internal/stage"
)

// editEntry is the reply when the edit workflow begins.
func (r *Router) editEntry(s *Session) string {
	return "Sure, let's update a ticket. Which ticket ID is it, and what should change?"
}

// handleEdit drives the edit and edit_confirm stages.
func (r *Router) handleEdit(ctx context.Context, s *Session, result *extract.Result) string {
	if s.Stage == stage.EditConfirm {
		return r.handleEditConfirm(ctx, s, result)
	}

	switch result.Kind {
	case extract.KindStructuredData:
		return r.editOnStructuredData(s, result.Fields)
	case extract.KindFreeText:
		if result.Text != "" {
			return result.Text
		}
		return r.editEntry(s)
	default:
		return r.editEntry(s)
	}
}

// editOnStructuredData gates on the ticket ID, then on having at least
// one field to change, before offering confirmation.
func (r *Router) editOnStructuredData(s *Session, fields extract.Fields) string {
	if s.Draft.TicketID == "" && fields.TicketID == "" {
		return fmt.Sprintf("Which ticket should I update? Please give me its %s first.", DisplayName("ticket_id"))
	}

	s.Draft.Merge(fields)

	if !s.Draft.HasChanges() {
		return fmt.Sprintf("What should change on ticket %s? You can update the %s, %s, or %s.",
			s.Draft.TicketID,
			DisplayName("serial_number"), DisplayName("device_type"), DisplayName("problem_description"))
	}

	if !r.transition(s, stage.EditConfirm) {
		return replyDidNotUnderstand
	}
	return fmt.Sprintf("Here are the changes for ticket %s:\n%s\nShall I apply them? (yes/no)",
		s.Draft.TicketID, s.Draft.Summary())
}

// handleEditConfirm interprets the user's answer and applies the
// update on an affirmative.
func (r *Router) handleEditConfirm(ctx context.Context, s *Session, result *extract.Result) string {
	if result.Kind == extract.KindStructuredData && !result.Fields.Empty() {
		s.Draft.Merge(result.Fields)
		return fmt.Sprintf("Updated. Here are the changes for ticket %s:\n%s\nShall I apply them? (yes/no)",
			s.Draft.TicketID, s.Draft.Summary())
	}

	switch classifyAffirmation(result.Summary, result.Text) {
	case affirmYes:
		return r.commitEdit(ctx, s)
	case affirmNo:
		// Keep the ticket ID, discard the pending field edits.
		ticketID := s.Draft.TicketID
		s.clearDraft()
		s.Draft.TicketID = ticketID
		if !r.transition(s, stage.Edit) {
			return replyDidNotUnderstand
		}
		return fmt.Sprintf("Okay, discarded. What should change on ticket %s?", ticketID)
	default:
		return "Please answer yes or no: should I apply these changes?"
	}
}

// commitEdit looks the ticket up and applies the drafted changes.
func (r *Router) commitEdit(ctx context.Context, s *Session) string {
	ticketID := s.Draft.TicketID

	if _, err := r.backend.GetTicket(ctx, ticketID); err != nil {
		if !r.transition(s, stage.Edit) {
			return replyDidNotUnderstand
		}
		if errors.Is(err, backend.ErrNotFound) {
			return fmt.Sprintf("I couldn't find a ticket with ID %s. Please check the ID and try again.", ticketID)
		}
		r.logger.Printf("session %s: get ticket %s: %v", s.ID, ticketID, err)
		return replyApology
	}

	err := r.backend.UpdateTicket(ctx, ticketID, backend.TicketFields{
		SerialNumber:       s.Draft.SerialNumber,
		DeviceType:         s.Draft.DeviceType,
		ProblemDescription: s.Draft.ProblemDescription,
	})
	if err != nil {
		if !r.transition(s, stage.Edit) {
			return replyDidNotUnderstand
		}
		if errors.Is(err, backend.ErrNotFound) {
			return fmt.Sprintf("I couldn't find a ticket with ID %s. Please check the ID and try again.", ticketID)
		}
		r.logger.Printf("session %s: update ticket %s: %v", s.ID, ticketID, err)
		return replyApology
	}

	s.clearDraft()
	r.transition(s, stage.Main)
	return fmt.Sprintf("Ticket %s has been updated. Is there anything else I can help with?", ticketID)
}
