package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/zulandar/switchboard/internal/backend"
	"github.com/zulandar/switchboard/internal/extract"
	"github.com/zulandar/switchboard/internal/stage"
)

// openTicketLister is an optional backend capability: the conversation
// warns about existing open tickets for a device when the backend can
// list them.
type openTicketLister interface {
	OpenTicketCount(ctx context.Context, serialNumber string) (int64, error)
}

// createEntry is the reply when the create workflow begins.
func (r *Router) createEntry(s *Session) string {
	return "Let's open a new support ticket. Please tell me the device's serial number, the device type, and a description of the problem."
}

// handleCreate drives the create and create_confirm stages.
func (r *Router) handleCreate(ctx context.Context, s *Session, result *extract.Result) string {
	if s.Stage == stage.CreateConfirm {
		return r.handleCreateConfirm(ctx, s, result)
	}

	switch result.Kind {
	case extract.KindStructuredData:
		return r.createOnStructuredData(s, result.Fields)
	case extract.KindFreeText:
		if result.Text != "" {
			return result.Text
		}
		return r.createMissingPrompt(s)
	default:
		return r.createMissingPrompt(s)
	}
}

// createOnStructuredData merges extracted fields into the draft and
// either asks for what is still missing or moves to confirmation.
func (r *Router) createOnStructuredData(s *Session, fields extract.Fields) string {
	s.Draft.Merge(fields)

	complete, missing := Validate(s.Draft, createRequired)
	if !complete {
		return fmt.Sprintf("Got it. I still need the following: %s.", strings.Join(missing, ", "))
	}

	if !r.transition(s, stage.CreateConfirm) {
		return replyDidNotUnderstand
	}
	return fmt.Sprintf("Here is the ticket I'm about to create:\n%s\nShall I go ahead? (yes/no)", s.Draft.Summary())
}

func (r *Router) createMissingPrompt(s *Session) string {
	_, missing := Validate(s.Draft, createRequired)
	if len(missing) == 0 {
		return "Please confirm the ticket details."
	}
	return fmt.Sprintf("To open the ticket I need the following: %s.", strings.Join(missing, ", "))
}

// handleCreateConfirm interprets the user's answer to the confirmation
// prompt, including disambiguation picks when several devices matched.
func (r *Router) handleCreateConfirm(ctx context.Context, s *Session, result *extract.Result) string {
	// Corrected field values during confirmation update the draft and
	// re-present the summary.
	if result.Kind == extract.KindStructuredData && !result.Fields.Empty() {
		s.Draft.Merge(result.Fields)
		s.Candidates = nil
		s.DeviceID = nil
		return fmt.Sprintf("Updated. Here is the ticket:\n%s\nShall I go ahead? (yes/no)", s.Draft.Summary())
	}

	if len(s.Candidates) > 0 {
		if picked, ok := pickCandidate(s.Candidates, result.Text); ok {
			id := picked.ID
			s.DeviceID = &id
			s.Candidates = nil
			return fmt.Sprintf("Using %s at %s. Here is the ticket:\n%s\nShall I go ahead? (yes/no)",
				picked.Name, picked.Location, s.Draft.Summary())
		}
	}

	switch classifyAffirmation(result.Summary, result.Text) {
	case affirmYes:
		return r.commitCreate(ctx, s)
	case affirmNo:
		s.clearDraft()
		if !r.transition(s, stage.Create) {
			return replyDidNotUnderstand
		}
		return "No problem, let's start over. What are the correct details?"
	default:
		if len(s.Candidates) > 0 {
			return disambiguationPrompt(s.Candidates)
		}
		return "Please answer yes or no: should I create this ticket?"
	}
}

// commitCreate runs the processing stage: device lookup, the
// zero/one/many branch, and the actual ticket creation.
func (r *Router) commitCreate(ctx context.Context, s *Session) string {
	if !r.transition(s, stage.Processing) {
		return replyDidNotUnderstand
	}

	if s.DeviceID == nil {
		devices, err := r.backend.LookupDevice(ctx, s.Draft.SerialNumber)
		if err != nil {
			r.logger.Printf("session %s: device lookup: %v", s.ID, err)
			r.transition(s, stage.CreateConfirm)
			return replyApology
		}

		switch len(devices) {
		case 0:
			// Unregistered device, create the ticket as described.
		case 1:
			id := devices[0].ID
			s.DeviceID = &id
		default:
			s.Candidates = toCandidates(devices)
			r.transition(s, stage.CreateConfirm)
			return disambiguationPrompt(s.Candidates)
		}
	}

	notice := r.openTicketNotice(ctx, s.Draft.SerialNumber)

	ticketID, err := r.backend.CreateTicket(ctx, backend.TicketFields{
		SerialNumber:       s.Draft.SerialNumber,
		DeviceType:         s.Draft.DeviceType,
		ProblemDescription: s.Draft.ProblemDescription,
		DeviceID:           s.DeviceID,
	})
	if err != nil {
		r.logger.Printf("session %s: create ticket: %v", s.ID, err)
		r.transition(s, stage.CreateConfirm)
		return "Sorry, I couldn't create the ticket just now. Shall I try again? (yes/no)"
	}

	s.clearDraft()
	r.transition(s, stage.Main)
	return fmt.Sprintf("Done! Your ticket %s has been created.%s Is there anything else I can help with?", ticketID, notice)
}

// openTicketNotice mentions existing open tickets for the serial
// number when the backend can count them.
func (r *Router) openTicketNotice(ctx context.Context, serialNumber string) string {
	lister, ok := r.backend.(openTicketLister)
	if !ok || serialNumber == "" {
		return ""
	}
	count, err := lister.OpenTicketCount(ctx, serialNumber)
	if err != nil {
		r.logger.Printf("open ticket count for %s: %v", serialNumber, err)
		return ""
	}
	if count == 0 {
		return ""
	}
	return fmt.Sprintf(" Note: this device already has %d open ticket(s).", count)
}

func toCandidates(devices []backend.DeviceRecord) []DeviceCandidate {
	out := make([]DeviceCandidate, 0, len(devices))
	for _, d := range devices {
		out = append(out, DeviceCandidate{
			ID:           d.ID,
			SerialNumber: d.SerialNumber,
			Name:         d.Name,
			Location:     d.Location,
		})
	}
	return out
}

func disambiguationPrompt(candidates []DeviceCandidate) string {
	var b strings.Builder
	b.WriteString("I found several devices with that serial number. Which one do you mean?\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, c.Name, c.Location)
	}
	b.WriteString("Reply with the number or the device name.")
	return b.String()
}

// pickCandidate matches a free-text reply against the pending
// candidates, by list number or by a unique name/location match.
func pickCandidate(candidates []DeviceCandidate, text string) (DeviceCandidate, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return DeviceCandidate{}, false
	}

	if n, err := strconv.Atoi(strings.TrimRight(t, ".")); err == nil {
		if n >= 1 && n <= len(candidates) {
			return candidates[n-1], true
		}
		return DeviceCandidate{}, false
	}

	matches := make([]DeviceCandidate, 0, 1)
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c.Name), t) || strings.Contains(strings.ToLower(c.Location), t) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 1 {
		return matches[0], true
	}
	return DeviceCandidate{}, false
}
