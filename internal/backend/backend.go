// Package backend provides the ticket-backend contract: device lookups
// and ticket CRUD. The engine consumes the TicketBackend interface; the
// gorm-backed Store is the shipped implementation.
package backend

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a ticket or device does not exist.
var ErrNotFound = errors.New("backend: not found")

// TicketFields is the transferable subset of a ticket used by the
// conversation engine: everything a draft can stage, nothing more.
type TicketFields struct {
	SerialNumber       string
	DeviceType         string
	ProblemDescription string
	DeviceID           *uint // set when a device lookup resolved uniquely
}

// DeviceRecord is a configuration-item match returned by LookupDevice.
type DeviceRecord struct {
	ID           uint
	SerialNumber string
	Name         string
	Type         string
	Location     string
}

// TicketBackend is the contract the conversation engine commits against.
type TicketBackend interface {
	// LookupDevice resolves a serial number to zero, one, or many
	// registered devices.
	LookupDevice(ctx context.Context, serialNumber string) ([]DeviceRecord, error)

	// CreateTicket persists a new ticket and returns its ID.
	CreateTicket(ctx context.Context, fields TicketFields) (string, error)

	// GetTicket fetches a ticket's editable fields. Returns ErrNotFound
	// if no ticket has the given ID.
	GetTicket(ctx context.Context, ticketID string) (*TicketFields, error)

	// UpdateTicket applies non-empty fields to an existing ticket.
	// Returns ErrNotFound if no ticket has the given ID.
	UpdateTicket(ctx context.Context, ticketID string, fields TicketFields) error
}
