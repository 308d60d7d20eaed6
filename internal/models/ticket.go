package models

import "time"

// Ticket is a committed support ticket.
type Ticket struct {
	ID                 string `gorm:"primaryKey;size:32"`
	SerialNumber       string `gorm:"size:64;index"`
	DeviceType         string `gorm:"size:64"`
	ProblemDescription string `gorm:"type:text"`
	DeviceID           *uint  `gorm:"index"`
	Status             string `gorm:"size:16;default:open;index"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Device *Device `gorm:"foreignKey:DeviceID"`
}

// Device is a configuration-item record resolved during ticket creation.
// Serial numbers are not unique: the same serial can map to multiple
// registered devices, which drives the disambiguation flow.
type Device struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	SerialNumber string `gorm:"size:64;not null;index"`
	Name         string `gorm:"size:128"`
	Type         string `gorm:"size:64"`
	Location     string `gorm:"size:128"`
	CreatedAt    time.Time
}
