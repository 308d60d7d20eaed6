package db

import (
	"fmt"

	"github.com/zulandar/switchboard/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Ticket{},
		&models.Device{},
		&models.ChatSession{},
		&models.ChatTurn{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedDevices inserts device records if the registry is empty. Used by
// `sb db seed` to give local setups something to look up.
func SeedDevices(db *gorm.DB, devices []models.Device) error {
	var count int64
	if err := db.Model(&models.Device{}).Count(&count).Error; err != nil {
		return fmt.Errorf("db: count devices: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, dev := range devices {
		if err := db.Create(&dev).Error; err != nil {
			return fmt.Errorf("db: seed device %q: %w", dev.SerialNumber, err)
		}
	}
	return nil
}

// DefaultDevices is the development seed set.
func DefaultDevices() []models.Device {
	return []models.Device{
		{SerialNumber: "SN100", Name: "Front-desk printer", Type: "printer", Location: "Floor 1"},
		{SerialNumber: "SN100", Name: "Back-office printer", Type: "printer", Location: "Floor 2"},
		{SerialNumber: "SN200", Name: "Dev laptop 12", Type: "laptop", Location: "Floor 3"},
		{SerialNumber: "SN300", Name: "Meeting-room projector", Type: "projector", Location: "Floor 1"},
	}
}
