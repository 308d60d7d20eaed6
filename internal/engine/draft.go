package engine

import (
	"fmt"
	"strings"

	"github.com/zulandar/switchboard/internal/extract"
)

// TicketDraft accumulates field values across turns until the user
// confirms them.
type TicketDraft struct {
	TicketID           string
	SerialNumber       string
	DeviceType         string
	ProblemDescription string
}

// deviceTypeAliases normalizes common ways users name their hardware.
var deviceTypeAliases = map[string]string{
	"notebook":        "laptop",
	"macbook":         "laptop",
	"pc":              "desktop",
	"computer":        "desktop",
	"workstation":     "desktop",
	"screen":          "monitor",
	"display":         "monitor",
	"cell phone":      "phone",
	"cellphone":       "phone",
	"mobile":          "phone",
	"mobile phone":    "phone",
	"smartphone":      "phone",
	"beamer":          "projector",
	"multifunction":   "printer",
	"copier":          "printer",
	"photocopier":     "printer",
	"wifi router":     "router",
	"access point":    "router",
	"wireless router": "router",
}

// NormalizeDeviceType lowercases a device type and folds known aliases
// onto canonical names. Unrecognized values pass through lowercased.
func NormalizeDeviceType(s string) string {
	t := strings.ToLower(strings.TrimSpace(s))
	if canonical, ok := deviceTypeAliases[t]; ok {
		return canonical
	}
	return t
}

// Merge overwrites draft slots with incoming non-empty values. Fields
// the extraction omitted never blank an existing value.
func (d *TicketDraft) Merge(fields extract.Fields) {
	if v := strings.TrimSpace(fields.TicketID); v != "" {
		d.TicketID = v
	}
	if v := strings.TrimSpace(fields.SerialNumber); v != "" {
		d.SerialNumber = v
	}
	if v := strings.TrimSpace(fields.DeviceType); v != "" {
		d.DeviceType = NormalizeDeviceType(v)
	}
	if v := strings.TrimSpace(fields.ProblemDescription); v != "" {
		d.ProblemDescription = v
	}
}

// HasChanges reports whether any editable field besides the ticket ID
// carries a value.
func (d *TicketDraft) HasChanges() bool {
	return d.SerialNumber != "" || d.DeviceType != "" || d.ProblemDescription != ""
}

// Summary formats the draft for a confirmation prompt.
func (d *TicketDraft) Summary() string {
	var b strings.Builder
	if d.TicketID != "" {
		fmt.Fprintf(&b, "- %s: %s\n", DisplayName("ticket_id"), d.TicketID)
	}
	if d.SerialNumber != "" {
		fmt.Fprintf(&b, "- %s: %s\n", DisplayName("serial_number"), d.SerialNumber)
	}
	if d.DeviceType != "" {
		fmt.Fprintf(&b, "- %s: %s\n", DisplayName("device_type"), d.DeviceType)
	}
	if d.ProblemDescription != "" {
		fmt.Fprintf(&b, "- %s: %s\n", DisplayName("problem_description"), d.ProblemDescription)
	}
	return strings.TrimRight(b.String(), "\n")
}
