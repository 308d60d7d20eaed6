package engine

// displayNames maps field keys to the names shown to users.
var displayNames = map[string]string{
	"ticket_id":           "ticket ID",
	"serial_number":       "serial number",
	"device_type":         "device type",
	"problem_description": "problem description",
}

// DisplayName returns the user-facing name of a field key.
func DisplayName(field string) string {
	if name, ok := displayNames[field]; ok {
		return name
	}
	return field
}

// createRequired is the field set a new ticket must carry.
var createRequired = []string{"serial_number", "device_type", "problem_description"}

// Validate checks the draft against a required-field set. It is pure:
// no I/O, no mutation. Missing fields come back as display names in
// the order of the required list.
func Validate(draft *TicketDraft, required []string) (bool, []string) {
	var missing []string
	for _, field := range required {
		var value string
		switch field {
		case "ticket_id":
			value = draft.TicketID
		case "serial_number":
			value = draft.SerialNumber
		case "device_type":
			value = draft.DeviceType
		case "problem_description":
			value = draft.ProblemDescription
		}
		if value == "" {
			missing = append(missing, DisplayName(field))
		}
	}
	return len(missing) == 0, missing
}
