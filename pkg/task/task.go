// SPDX-License-Identifier: Apache-2.0

// Package task holds the immutable task definition registry.
package task

import (
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/planwright/planwright/pkg/errors"
	"github.com/planwright/planwright/pkg/persona"
)

// Definition is a unit of work description with an expected-output contract.
// AssignedPersonaID is a weak reference resolved against the persona registry
// at load time; the task does not own the persona.
type Definition struct {
	ID                string `yaml:"id"`
	Description       string `yaml:"description"`
	ExpectedOutput    string `yaml:"expected_output"`
	AssignedPersonaID string `yaml:"assigned_persona_id,omitempty"`
}

// Store is a read-only task registry.
type Store struct {
	tasks map[string]Definition
}

type taskFile struct {
	Tasks []Definition `yaml:"tasks"`
}

// Load reads a task registry from a YAML file, resolving persona references
// against personas.
func Load(path string, personas *persona.Store) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeConfig, "read task config", err).
			WithContext("path", path)
	}
	return Parse(data, personas)
}

// Parse builds a Store from YAML data. Duplicate ids and unresolved persona
// references fail the whole load; no partial store is returned.
func Parse(data []byte, personas *persona.Store) (*Store, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.CodeConfig, "empty task config", nil)
	}
	var tf taskFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, errors.New(errors.CodeConfig, "parse task config", err)
	}
	return build(tf.Tasks, personas)
}

func build(tasks []Definition, personas *persona.Store) (*Store, error) {
	s := &Store{tasks: make(map[string]Definition, len(tasks))}
	for _, t := range tasks {
		if err := validate(t); err != nil {
			return nil, err
		}
		if _, exists := s.tasks[t.ID]; exists {
			return nil, errors.New(errors.CodeConfig, "duplicate task id", nil).
				WithContext("id", t.ID)
		}
		if t.AssignedPersonaID != "" && (personas == nil || !personas.Has(t.AssignedPersonaID)) {
			return nil, errors.New(errors.CodeConfig, "unresolved persona reference", nil).
				WithContext("task_id", t.ID).
				WithContext("persona_id", t.AssignedPersonaID)
		}
		s.tasks[t.ID] = t
	}
	return s, nil
}

func validate(t Definition) error {
	missing := ""
	switch {
	case strings.TrimSpace(t.ID) == "":
		missing = "id"
	case strings.TrimSpace(t.Description) == "":
		missing = "description"
	case strings.TrimSpace(t.ExpectedOutput) == "":
		missing = "expected_output"
	}
	if missing != "" {
		return errors.New(errors.CodeConfig, "task missing required field", nil).
			WithContext("id", t.ID).
			WithContext("field", missing)
	}
	return nil
}

// Get returns the task definition for id.
func (s *Store) Get(id string) (Definition, error) {
	t, ok := s.tasks[id]
	if !ok {
		return Definition{}, errors.New(errors.CodeNotFound, "task not found", nil).
			WithContext("id", id).
			WithRecoverable(true)
	}
	return t, nil
}

// IDs returns all task ids in sorted order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered tasks.
func (s *Store) Len() int { return len(s.tasks) }
