package stage

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed instructions/*.md
var instructionFiles embed.FS

// conversational stages carry model instructions; processing and
// terminated never reach the model.
var instructionNames = map[Stage]string{
	Main:          "main.md",
	Create:        "create.md",
	CreateConfirm: "create_confirm.md",
	Edit:          "edit.md",
	EditConfirm:   "edit_confirm.md",
}

// ManagerOpts configures a Manager. InstructionsDir optionally points
// at a directory whose files override the embedded defaults.
type ManagerOpts struct {
	InstructionsDir string
}

// Manager validates stage transitions and serves the per-stage model
// instruction payloads.
type Manager struct {
	instructions map[Stage]string
}

// NewManager loads the embedded instruction set, applying any
// overrides found in opts.InstructionsDir.
func NewManager(opts ManagerOpts) (*Manager, error) {
	m := &Manager{instructions: make(map[Stage]string, len(instructionNames))}

	for s, name := range instructionNames {
		data, err := instructionFiles.ReadFile("instructions/" + name)
		if err != nil {
			return nil, fmt.Errorf("stage: read embedded instructions for %s: %w", s, err)
		}
		m.instructions[s] = string(data)
	}

	if opts.InstructionsDir != "" {
		for s, name := range instructionNames {
			path := filepath.Join(opts.InstructionsDir, name)
			data, err := os.ReadFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return nil, fmt.Errorf("stage: read instructions override %s: %w", path, err)
			}
			m.instructions[s] = string(data)
		}
	}

	return m, nil
}

// Transition validates the move and returns the target stage to set.
func (m *Manager) Transition(from, to Stage) (Stage, error) {
	if err := CheckTransition(from, to); err != nil {
		return from, err
	}
	return to, nil
}

// Instructions returns the model instruction text for a conversational
// stage. Stages that never reach the model have none.
func (m *Manager) Instructions(s Stage) (string, error) {
	text, ok := m.instructions[s]
	if !ok {
		return "", fmt.Errorf("stage: no instructions for stage %q", s)
	}
	return text, nil
}
