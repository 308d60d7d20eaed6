package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeSQLiteConfig writes a minimal config pointing at a sqlite file
// inside dir and returns the config path.
func writeSQLiteConfig(t *testing.T, dir string) string {
	t.Helper()
	cfgPath := filepath.Join(dir, "switchboard.yaml")
	cfg := fmt.Sprintf("database:\n  driver: sqlite\n  path: %s\n", filepath.Join(dir, "switchboard.db"))
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func TestDBCmd_Help(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"db", "--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("db --help failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Database management") {
		t.Errorf("expected help to mention 'Database management', got: %s", out)
	}
	for _, sub := range []string{"init", "migrate", "seed"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help to list %q subcommand, got: %s", sub, out)
		}
	}
}

func TestDBInitCmd_MissingConfig(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"db", "init", "--config", "/nonexistent/switchboard.yaml"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestDBInitCmd_SQLite(t *testing.T) {
	cfgPath := writeSQLiteConfig(t, t.TempDir())

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"db", "init", "--config", cfgPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("db init failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Connected to sqlite database", "Migrated 4 tables", "Seeded 4 devices", "initialized successfully"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got: %s", want, out)
		}
	}
}

func TestDBSeedCmd_Idempotent(t *testing.T) {
	cfgPath := writeSQLiteConfig(t, t.TempDir())

	run := func(args ...string) string {
		cmd := newRootCmd()
		buf := new(bytes.Buffer)
		cmd.SetOut(buf)
		cmd.SetErr(buf)
		cmd.SetArgs(args)
		if err := cmd.Execute(); err != nil {
			t.Fatalf("%v failed: %v", args, err)
		}
		return buf.String()
	}

	run("db", "init", "--config", cfgPath)
	// Seeding again must not duplicate the inventory.
	out := run("db", "seed", "--config", cfgPath)
	if !strings.Contains(out, "Seeded") {
		t.Errorf("expected seed output, got: %s", out)
	}

	listOut := run("ticket", "list", "--config", cfgPath)
	if !strings.Contains(listOut, "No tickets found.") {
		t.Errorf("expected empty ticket list after init, got: %s", listOut)
	}
}

func TestNewDBInitCmd_Flags(t *testing.T) {
	cmd := newDBInitCmd()
	if cmd.Use != "init" {
		t.Errorf("Use = %q, want %q", cmd.Use, "init")
	}
	flag := cmd.Flags().Lookup("config")
	if flag == nil {
		t.Fatal("expected --config flag")
	}
	if flag.DefValue != "switchboard.yaml" {
		t.Errorf("--config default = %q, want %q", flag.DefValue, "switchboard.yaml")
	}
	if flag.Shorthand != "c" {
		t.Errorf("--config shorthand = %q, want %q", flag.Shorthand, "c")
	}
}
