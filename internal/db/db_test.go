package db

import (
	"path/filepath"
	"testing"

	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/models"
)

func TestConnect_SQLite(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")}
	db, err := Connect(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !db.Migrator().HasTable(&models.Ticket{}) {
		t.Error("tickets table missing after migrate")
	}
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "oracle"})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{User: "root", Host: "127.0.0.1", Port: 3306, Name: "switchboard"}
	want := "root@tcp(127.0.0.1:3306)/switchboard?parseTime=true"
	if got := DSN(cfg); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}

func TestSeedDevices_OnlyWhenEmpty(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "seed.db")}
	db, err := Connect(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if err := SeedDevices(db, DefaultDevices()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var first int64
	db.Model(&models.Device{}).Count(&first)
	if first == 0 {
		t.Fatal("no devices seeded")
	}

	// Second seed must be a no-op.
	if err := SeedDevices(db, DefaultDevices()); err != nil {
		t.Fatalf("re-seed: %v", err)
	}
	var second int64
	db.Model(&models.Device{}).Count(&second)
	if second != first {
		t.Errorf("device count changed on re-seed: %d -> %d", first, second)
	}
}
