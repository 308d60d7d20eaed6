package backend

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/zulandar/switchboard/internal/models"
)

// Store is the gorm-backed TicketBackend.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store. The db handle is required.
func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("backend: db is required")
	}
	return &Store{db: db}, nil
}

// GenerateTicketID creates a random ticket ID like "TK-a3f9c".
func GenerateTicketID() string {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "TK-00000"
	}
	return "TK-" + hex.EncodeToString(b)[:5]
}

// generateUniqueID returns a ticket ID not already present in the table.
func generateUniqueID(db *gorm.DB) (string, error) {
	for i := 0; i < 10; i++ {
		id := GenerateTicketID()
		var count int64
		if err := db.Model(&models.Ticket{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("backend: check id uniqueness: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("backend: could not generate unique ticket id after 10 attempts")
}

// LookupDevice returns every registered device with the given serial
// number. Zero rows is not an error; callers branch on the count.
func (s *Store) LookupDevice(ctx context.Context, serialNumber string) ([]DeviceRecord, error) {
	var devices []models.Device
	err := s.db.WithContext(ctx).
		Where("serial_number = ?", strings.TrimSpace(serialNumber)).
		Order("id asc").
		Find(&devices).Error
	if err != nil {
		return nil, fmt.Errorf("backend: lookup device: %w", err)
	}

	records := make([]DeviceRecord, 0, len(devices))
	for _, d := range devices {
		records = append(records, DeviceRecord{
			ID:           d.ID,
			SerialNumber: d.SerialNumber,
			Name:         d.Name,
			Type:         d.Type,
			Location:     d.Location,
		})
	}
	return records, nil
}

// CreateTicket persists a new open ticket and returns its ID.
func (s *Store) CreateTicket(ctx context.Context, fields TicketFields) (string, error) {
	id, err := generateUniqueID(s.db.WithContext(ctx))
	if err != nil {
		return "", err
	}

	ticket := models.Ticket{
		ID:                 id,
		SerialNumber:       fields.SerialNumber,
		DeviceType:         fields.DeviceType,
		ProblemDescription: fields.ProblemDescription,
		DeviceID:           fields.DeviceID,
		Status:             "open",
	}
	if err := s.db.WithContext(ctx).Create(&ticket).Error; err != nil {
		return "", fmt.Errorf("backend: create ticket: %w", err)
	}
	return id, nil
}

// GetTicket fetches the editable fields of a ticket.
func (s *Store) GetTicket(ctx context.Context, ticketID string) (*TicketFields, error) {
	var ticket models.Ticket
	err := s.db.WithContext(ctx).Where("id = ?", ticketID).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("backend: get ticket: %w", err)
	}
	return &TicketFields{
		SerialNumber:       ticket.SerialNumber,
		DeviceType:         ticket.DeviceType,
		ProblemDescription: ticket.ProblemDescription,
		DeviceID:           ticket.DeviceID,
	}, nil
}

// UpdateTicket overwrites only the non-empty fields on an existing
// ticket. Empty strings leave the stored value untouched.
func (s *Store) UpdateTicket(ctx context.Context, ticketID string, fields TicketFields) error {
	var ticket models.Ticket
	err := s.db.WithContext(ctx).Where("id = ?", ticketID).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("backend: load ticket for update: %w", err)
	}

	updates := map[string]interface{}{}
	if fields.SerialNumber != "" {
		updates["serial_number"] = fields.SerialNumber
	}
	if fields.DeviceType != "" {
		updates["device_type"] = fields.DeviceType
	}
	if fields.ProblemDescription != "" {
		updates["problem_description"] = fields.ProblemDescription
	}
	if fields.DeviceID != nil {
		updates["device_id"] = *fields.DeviceID
	}
	if len(updates) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(&ticket).Updates(updates).Error; err != nil {
		return fmt.Errorf("backend: update ticket: %w", err)
	}
	return nil
}

// ListFilters narrows ListTickets results. Zero values mean no filter.
type ListFilters struct {
	Status       string
	SerialNumber string
	Limit        int
}

// ListTickets returns tickets matching the filters, newest first. Used
// by the CLI and the HTTP API, not by the conversation engine.
func (s *Store) ListTickets(ctx context.Context, filters ListFilters) ([]models.Ticket, error) {
	q := s.db.WithContext(ctx).Model(&models.Ticket{}).Preload("Device").Order("created_at desc")
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.SerialNumber != "" {
		q = q.Where("serial_number = ?", filters.SerialNumber)
	}
	if filters.Limit > 0 {
		q = q.Limit(filters.Limit)
	}

	var tickets []models.Ticket
	if err := q.Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("backend: list tickets: %w", err)
	}
	return tickets, nil
}

// FindTicket loads a full ticket row with its device association.
func (s *Store) FindTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.db.WithContext(ctx).Preload("Device").Where("id = ?", ticketID).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("backend: find ticket: %w", err)
	}
	return &ticket, nil
}

// OpenTicketsForSerial returns existing open tickets for a serial
// number, used to warn about likely duplicates during creation.
func (s *Store) OpenTicketsForSerial(ctx context.Context, serialNumber string) ([]models.Ticket, error) {
	return s.ListTickets(ctx, ListFilters{Status: "open", SerialNumber: serialNumber})
}

// OpenTicketCount reports how many open tickets exist for a serial
// number.
func (s *Store) OpenTicketCount(ctx context.Context, serialNumber string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("status = ? AND serial_number = ?", "open", serialNumber).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("backend: count open tickets: %w", err)
	}
	return count, nil
}

// CountTicketsSince returns how many tickets were created at or after
// the given time, for the daily digest.
func (s *Store) CountTicketsSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("created_at >= ?", since).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("backend: count tickets: %w", err)
	}
	return count, nil
}
