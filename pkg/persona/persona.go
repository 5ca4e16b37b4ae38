// SPDX-License-Identifier: Apache-2.0

// Package persona holds the immutable agent persona registry.
package persona

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/planwright/planwright/pkg/errors"
)

// AgentPersona frames how a workflow step communicates: a named role with a
// goal, a backstory establishing voice, and optional ordered instructions that
// are appended verbatim to the system framing. Instructions are data, never
// control flow.
type AgentPersona struct {
	ID           string   `yaml:"id"`
	Role         string   `yaml:"role"`
	Goal         string   `yaml:"goal"`
	Backstory    string   `yaml:"backstory"`
	Instructions []string `yaml:"instructions,omitempty"`
}

// SystemPrompt renders the persona as system-level framing for the LLM.
func (p AgentPersona) SystemPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a %s.\n", p.Role)
	fmt.Fprintf(&b, "Your goal: %s\n", p.Goal)
	fmt.Fprintf(&b, "Background: %s\n", p.Backstory)
	for _, instr := range p.Instructions {
		b.WriteString(instr)
		b.WriteString("\n")
	}
	return b.String()
}

// Store is a read-only persona registry. Load returns a fresh handle; there
// is no mutation API after construction.
type Store struct {
	personas map[string]AgentPersona
}

type personaFile struct {
	Personas []AgentPersona `yaml:"personas"`
}

// Load reads a persona registry from a YAML file.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeConfig, "read persona config", err).
			WithContext("path", path)
	}
	return Parse(data)
}

// Parse builds a Store from YAML data, validating ids and required fields.
// Any malformed record fails the whole load; no partial store is returned.
func Parse(data []byte) (*Store, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.CodeConfig, "empty persona config", nil)
	}
	var pf personaFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, errors.New(errors.CodeConfig, "parse persona config", err)
	}
	return build(pf.Personas)
}

func build(personas []AgentPersona) (*Store, error) {
	s := &Store{personas: make(map[string]AgentPersona, len(personas))}
	for _, p := range personas {
		if err := validate(p); err != nil {
			return nil, err
		}
		if _, exists := s.personas[p.ID]; exists {
			return nil, errors.New(errors.CodeConfig, "duplicate persona id", nil).
				WithContext("id", p.ID)
		}
		s.personas[p.ID] = p
	}
	return s, nil
}

func validate(p AgentPersona) error {
	missing := ""
	switch {
	case strings.TrimSpace(p.ID) == "":
		missing = "id"
	case strings.TrimSpace(p.Role) == "":
		missing = "role"
	case strings.TrimSpace(p.Goal) == "":
		missing = "goal"
	case strings.TrimSpace(p.Backstory) == "":
		missing = "backstory"
	}
	if missing != "" {
		return errors.New(errors.CodeConfig, "persona missing required field", nil).
			WithContext("id", p.ID).
			WithContext("field", missing)
	}
	return nil
}

// Get returns the persona for id.
func (s *Store) Get(id string) (AgentPersona, error) {
	p, ok := s.personas[id]
	if !ok {
		return AgentPersona{}, errors.New(errors.CodeNotFound, "persona not found", nil).
			WithContext("id", id).
			WithRecoverable(true)
	}
	return p, nil
}

// Has reports whether id is registered.
func (s *Store) Has(id string) bool {
	_, ok := s.personas[id]
	return ok
}

// IDs returns all persona ids in sorted order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.personas))
	for id := range s.personas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered personas.
func (s *Store) Len() int { return len(s.personas) }
