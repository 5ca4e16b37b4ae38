package task

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/planwright/planwright/pkg/errors"
	"github.com/planwright/planwright/pkg/persona"
)

const personaYAML = `
personas:
  - id: interpreter
    role: Requirements Interpreter
    goal: Gather requirements
    backstory: A veteran developer.
`

const taskYAML = `
tasks:
  - id: interview
    description: Run the requirements interview.
    expected_output: A masterplan document.
    assigned_persona_id: interpreter
  - id: unassigned
    description: A task with no persona.
    expected_output: Anything.
`

func personaStore(t *testing.T) *persona.Store {
	t.Helper()
	s, err := persona.Parse([]byte(personaYAML))
	if err != nil {
		t.Fatalf("persona.Parse failed: %v", err)
	}
	return s
}

func TestParse(t *testing.T) {
	s, err := Parse([]byte(taskYAML), personaStore(t))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 tasks, got %d", s.Len())
	}

	def, err := s.Get("interview")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if def.AssignedPersonaID != "interpreter" {
		t.Errorf("unexpected persona ref: %s", def.AssignedPersonaID)
	}

	// Zero persona references are allowed.
	if _, err := s.Get("unassigned"); err != nil {
		t.Errorf("unassigned task should load: %v", err)
	}
}

func TestParseUnresolvedPersona(t *testing.T) {
	bad := `
tasks:
  - id: interview
    description: D
    expected_output: E
    assigned_persona_id: ghost
`
	_, err := Parse([]byte(bad), personaStore(t))
	if !errors.IsConfig(err) {
		t.Errorf("expected config error for unresolved persona, got %v", err)
	}
}

func TestParseDuplicateID(t *testing.T) {
	dup := `
tasks:
  - id: a
    description: D
    expected_output: E
  - id: a
    description: D2
    expected_output: E2
`
	if _, err := Parse([]byte(dup), personaStore(t)); !errors.IsConfig(err) {
		t.Errorf("expected config error for duplicate id, got %v", err)
	}
}

func TestParseMissingFields(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing description", "tasks:\n  - id: a\n    expected_output: E\n"},
		{"missing expected_output", "tasks:\n  - id: a\n    description: D\n"},
		{"missing id", "tasks:\n  - description: D\n    expected_output: E\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml), personaStore(t)); !errors.IsConfig(err) {
				t.Errorf("expected config error, got %v", err)
			}
		})
	}
}

func TestGetNotFound(t *testing.T) {
	s, err := Parse([]byte(taskYAML), personaStore(t))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, err := s.Get("absent"); !errors.IsNotFound(err) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	if err := os.WriteFile(path, []byte(taskYAML), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	s, err := Load(path, personaStore(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 tasks, got %d", s.Len())
	}
}

func TestBuiltin(t *testing.T) {
	s, err := Builtin(persona.Builtin())
	if err != nil {
		t.Fatalf("Builtin failed: %v", err)
	}

	def, err := s.Get(InterpretationTaskID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if def.AssignedPersonaID != "requirements_interpreter_agent" {
		t.Errorf("interpretation task bound to %s", def.AssignedPersonaID)
	}
	if def.ExpectedOutput == "" {
		t.Error("expected output contract must be set")
	}
}

func TestBuiltinRequiresInterpreterPersona(t *testing.T) {
	// A persona store without the interpreter cannot resolve the builtin task.
	empty, err := persona.Parse([]byte(personaYAML))
	if err != nil {
		t.Fatalf("persona.Parse failed: %v", err)
	}
	if _, err := Builtin(empty); !errors.IsConfig(err) {
		t.Errorf("expected config error, got %v", err)
	}
}
