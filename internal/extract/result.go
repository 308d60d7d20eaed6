// Package extract talks to an OpenAI-compatible chat-completions
// endpoint and turns model replies into typed extraction results the
// conversation engine can branch on.
package extract

// ResultKind discriminates what the model returned.
type ResultKind string

const (
	// KindStructuredData means the model produced ticket field values.
	KindStructuredData ResultKind = "structured_data"
	// KindFreeText means the model produced a plain conversational reply.
	KindFreeText ResultKind = "free_text"
	// KindCommand means the model classified the turn as a control intent.
	KindCommand ResultKind = "command"
)

// Command is a control intent recognized from the user's turn.
type Command string

const (
	CommandCreate  Command = "create"
	CommandEdit    Command = "edit"
	CommandExit    Command = "exit"
	CommandUnknown Command = "unknown"
)

// Fields holds extracted ticket field values. Absent fields stay empty;
// the engine only overwrites a draft slot when the value is non-empty.
type Fields struct {
	TicketID           string `json:"ticket_id,omitempty"`
	SerialNumber       string `json:"serial_number,omitempty"`
	DeviceType         string `json:"device_type,omitempty"`
	ProblemDescription string `json:"problem_description,omitempty"`
}

// Empty reports whether no field carries a value.
func (f Fields) Empty() bool {
	return f.TicketID == "" && f.SerialNumber == "" && f.DeviceType == "" && f.ProblemDescription == ""
}

// Result is the typed outcome of one extraction call. Exactly one of
// Fields, Text, or Command is meaningful, selected by Kind.
type Result struct {
	Kind    ResultKind
	Fields  Fields
	Text    string
	Command Command
	// Summary is the model's intent tag for the turn, e.g. "yes",
	// "create_ticket", "awaiting_confirmation".
	Summary string
}
