package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestDoctorCmd_AllPass(t *testing.T) {
	cfgPath := writeSQLiteConfig(t, t.TempDir())
	if _, err := runTicketCmd(t, "db", "init", "--config", cfgPath); err != nil {
		t.Fatalf("db init failed: %v", err)
	}
	t.Setenv("SWITCHBOARD_LLM_KEY", "test-key")

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"doctor", "--config", cfgPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("doctor failed: %v\noutput: %s", err, buf.String())
	}

	out := buf.String()
	for _, want := range []string{"Switchboard Doctor", "[PASS] config", "[PASS] database", "[PASS] schema", "All checks passed."} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got: %s", want, out)
		}
	}
	if strings.Contains(out, "[FAIL]") {
		t.Errorf("expected no failures, got: %s", out)
	}
}

func TestDoctorCmd_MissingSchema(t *testing.T) {
	cfgPath := writeSQLiteConfig(t, t.TempDir())
	t.Setenv("SWITCHBOARD_LLM_KEY", "test-key")

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"doctor", "--config", cfgPath})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected doctor to fail on unmigrated database")
	}
	out := buf.String()
	if !strings.Contains(out, "[FAIL] schema") {
		t.Errorf("expected schema failure, got: %s", out)
	}
	if !strings.Contains(out, "sb db migrate") {
		t.Errorf("expected migration hint, got: %s", out)
	}
}

func TestDoctorCmd_MissingAPIKey(t *testing.T) {
	cfgPath := writeSQLiteConfig(t, t.TempDir())
	if _, err := runTicketCmd(t, "db", "init", "--config", cfgPath); err != nil {
		t.Fatalf("db init failed: %v", err)
	}
	t.Setenv("SWITCHBOARD_LLM_KEY", "")

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"doctor", "--config", cfgPath})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected doctor to fail without an API key")
	}
	if !strings.Contains(buf.String(), "[FAIL] llm key") {
		t.Errorf("expected llm key failure, got: %s", buf.String())
	}
}
