package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.Path != "switchboard.db" {
		t.Errorf("path = %q", cfg.Database.Path)
	}
	if cfg.LLM.Model != "llama-3.3-70b-versatile" {
		t.Errorf("model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.MaxRetries != 3 {
		t.Errorf("max_retries = %d, want 3", cfg.LLM.MaxRetries)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("api port = %d, want 8080", cfg.API.Port)
	}
	if cfg.Bridge.IdleTimeoutMin != 30 {
		t.Errorf("idle timeout = %d, want 30", cfg.Bridge.IdleTimeoutMin)
	}
}

func TestParse_MySQL(t *testing.T) {
	cfg, err := Parse([]byte(`
database:
  driver: mysql
  host: db.internal
  name: helpdesk
llm:
  model: llama-3.1-8b-instant
  temperature: 0.1
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("host = %q", cfg.Database.Host)
	}
	if cfg.Database.Port != 3306 {
		t.Errorf("port = %d, want default 3306", cfg.Database.Port)
	}
	if cfg.LLM.Temperature != 0.1 {
		t.Errorf("temperature = %v", cfg.LLM.Temperature)
	}
}

func TestParse_InvalidDriver(t *testing.T) {
	_, err := Parse([]byte("database:\n  driver: postgres\n"))
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if !strings.Contains(err.Error(), "database.driver") {
		t.Errorf("error = %q", err)
	}
}

func TestParse_InvalidPlatform(t *testing.T) {
	_, err := Parse([]byte("bridge:\n  platform: irc\n"))
	if err == nil {
		t.Fatal("expected error for unsupported platform")
	}
	if !strings.Contains(err.Error(), "bridge.platform") {
		t.Errorf("error = %q", err)
	}
}

func TestParse_TemperatureOutOfRange(t *testing.T) {
	_, err := Parse([]byte("llm:\n  temperature: 3.5\n"))
	if err == nil {
		t.Fatal("expected error for temperature out of range")
	}
}

func TestParse_BadYAML(t *testing.T) {
	_, err := Parse([]byte("database: ["))
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("api:\n  port: 9191\ntranscripts:\n  enabled: true\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Port != 9191 {
		t.Errorf("port = %d, want 9191", cfg.API.Port)
	}
	if !cfg.Transcripts.Enabled {
		t.Error("transcripts should be enabled")
	}
}

func TestAPIKey_FromEnv(t *testing.T) {
	cfg := Default()
	t.Setenv(cfg.LLM.APIKeyEnv, "sk-test-123")
	if got := cfg.APIKey(); got != "sk-test-123" {
		t.Errorf("APIKey() = %q", got)
	}
}
