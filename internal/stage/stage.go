// Package stage defines the conversation stages and the fixed
// transition table that governs moves between them.
package stage

import (
	"errors"
	"fmt"
)

// Stage identifies where a session is in the ticket conversation.
type Stage string

const (
	Main          Stage = "main"
	Create        Stage = "create"
	CreateConfirm Stage = "create_confirm"
	Processing    Stage = "processing"
	Edit          Stage = "edit"
	EditConfirm   Stage = "edit_confirm"
	Terminated    Stage = "terminated"
)

// ErrIllegalTransition is returned when a requested move is not in the
// transition table. Callers log it and keep the session where it was.
var ErrIllegalTransition = errors.New("stage: illegal transition")

// transitions is the complete set of legal stage moves. Terminated is
// reachable from every live stage and has no outgoing edges.
// Processing is entered only from create_confirm and resolves in the
// same turn, either to main (ticket committed) or back to
// create_confirm (multiple devices matched, disambiguation needed).
var transitions = map[Stage][]Stage{
	Main:          {Create, Edit, Terminated},
	Create:        {CreateConfirm, Main, Edit, Terminated},
	CreateConfirm: {Processing, Create, Terminated},
	Processing:    {Main, CreateConfirm, Terminated},
	Edit:          {EditConfirm, Main, Create, Terminated},
	EditConfirm:   {Main, Edit, Terminated},
	Terminated:    {},
}

// All lists every stage, used for validation and iteration in tests.
func All() []Stage {
	return []Stage{Main, Create, CreateConfirm, Processing, Edit, EditConfirm, Terminated}
}

// Valid reports whether s is a known stage.
func Valid(s Stage) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether moving from one stage to another is
// legal. Staying on the current stage is always allowed.
func CanTransition(from, to Stage) bool {
	if from == to {
		return Valid(from)
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CheckTransition returns ErrIllegalTransition if the move is not in
// the table.
func CheckTransition(from, to Stage) error {
	if !Valid(from) {
		return fmt.Errorf("%w: unknown stage %q", ErrIllegalTransition, from)
	}
	if !Valid(to) {
		return fmt.Errorf("%w: unknown stage %q", ErrIllegalTransition, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}
