package stage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTransitionTable(t *testing.T) {
	allowed := map[Stage][]Stage{
		Main:          {Create, Edit, Terminated},
		Create:        {CreateConfirm, Main, Edit, Terminated},
		CreateConfirm: {Processing, Create, Terminated},
		Processing:    {Main, CreateConfirm, Terminated},
		Edit:          {EditConfirm, Main, Create, Terminated},
		EditConfirm:   {Main, Edit, Terminated},
		Terminated:    {},
	}

	for _, from := range All() {
		allowedSet := map[Stage]bool{from: true}
		for _, to := range allowed[from] {
			allowedSet[to] = true
		}
		for _, to := range All() {
			got := CanTransition(from, to)
			if got != allowedSet[to] {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, allowedSet[to])
			}
		}
	}
}

func TestTerminatedHasNoExits(t *testing.T) {
	for _, to := range All() {
		if to == Terminated {
			continue
		}
		if CanTransition(Terminated, to) {
			t.Errorf("terminated must not transition to %s", to)
		}
	}
}

func TestTerminatedReachableFromEverywhere(t *testing.T) {
	for _, from := range All() {
		if from == Terminated {
			continue
		}
		if !CanTransition(from, Terminated) {
			t.Errorf("terminated must be reachable from %s", from)
		}
	}
}

func TestCheckTransition_Illegal(t *testing.T) {
	err := CheckTransition(Main, Processing)
	if !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("expected ErrIllegalTransition, got %v", err)
	}

	err = CheckTransition("bogus", Main)
	if !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("expected ErrIllegalTransition for unknown stage, got %v", err)
	}
}

func TestManager_Transition(t *testing.T) {
	m, err := NewManager(ManagerOpts{})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	next, err := m.Transition(Main, Create)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if next != Create {
		t.Errorf("expected create, got %s", next)
	}

	next, err = m.Transition(Main, Processing)
	if !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("expected ErrIllegalTransition, got %v", err)
	}
	if next != Main {
		t.Errorf("failed transition must return the current stage, got %s", next)
	}
}

func TestManager_Instructions(t *testing.T) {
	m, err := NewManager(ManagerOpts{})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	for _, s := range []Stage{Main, Create, CreateConfirm, Edit, EditConfirm} {
		text, err := m.Instructions(s)
		if err != nil {
			t.Errorf("instructions for %s: %v", s, err)
		}
		if !strings.Contains(text, "summary") {
			t.Errorf("instructions for %s do not describe the reply envelope", s)
		}
	}

	if _, err := m.Instructions(Processing); err == nil {
		t.Error("processing should have no instructions")
	}
	if _, err := m.Instructions(Terminated); err == nil {
		t.Error("terminated should have no instructions")
	}
}

func TestManager_InstructionsOverride(t *testing.T) {
	dir := t.TempDir()
	override := "custom main summary instructions"
	if err := os.WriteFile(filepath.Join(dir, "main.md"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	m, err := NewManager(ManagerOpts{InstructionsDir: dir})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	text, err := m.Instructions(Main)
	if err != nil {
		t.Fatalf("instructions: %v", err)
	}
	if text != override {
		t.Errorf("override not applied, got %q", text)
	}

	// Stages without an override file keep the embedded default.
	text, err = m.Instructions(Create)
	if err != nil {
		t.Fatalf("instructions: %v", err)
	}
	if !strings.Contains(text, "serial_number") {
		t.Errorf("embedded default lost: %q", text)
	}
}
