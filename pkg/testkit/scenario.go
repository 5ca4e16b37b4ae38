// Copyright 2026 © The Planwright Authors
// SPDX-License-Identifier: Apache-2.0

// Package testkit provides utilities for testing interview workflows.
//
// This package includes:
//   - Scenario definitions for declarative interview testing
//   - Mock providers with scripted responses and request capture
//   - Event collectors for verifying workflow behavior
//
// Example usage:
//
//	scenario := testkit.NewScenario("happy path").
//	    WithAnswers("a todo app", "track tasks", ...).
//	    WithReviewFeedback("approve").
//	    ExpectPhase(interview.PhaseDone).
//	    ExpectEvent(core.EventWorkflowDone)
//
//	scenario.Run(t, workflow)
package testkit

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/planwright/planwright/pkg/core"
	"github.com/planwright/planwright/pkg/interview"
	"github.com/planwright/planwright/pkg/masterplan"
)

// Scenario drives one interview from start through a sequence of messages
// and verifies expectations against the outcome.
type Scenario struct {
	name         string
	answers      []string
	feedback     []string
	timeout      time.Duration
	expectations []Expectation
}

// ScenarioResult is the observable outcome of a scenario run.
type ScenarioResult struct {
	FinalPhase interview.Phase
	LastTurn   *interview.Turn
	Document   *masterplan.Document
	Events     []core.Event
	Error      error
}

// Expectation verifies one property of a scenario result.
type Expectation interface {
	Check(result *ScenarioResult) error
	Description() string
}

// NewScenario creates a named scenario.
func NewScenario(name string) *Scenario {
	return &Scenario{
		name:    name,
		timeout: 30 * time.Second,
	}
}

// WithAnswers sets the interview answers submitted in order during
// questioning.
func (s *Scenario) WithAnswers(answers ...string) *Scenario {
	s.answers = append(s.answers, answers...)
	return s
}

// WithReviewFeedback sets the messages submitted once the workflow reaches
// review.
func (s *Scenario) WithReviewFeedback(feedback ...string) *Scenario {
	s.feedback = append(s.feedback, feedback...)
	return s
}

// WithTimeout bounds the whole scenario run.
func (s *Scenario) WithTimeout(d time.Duration) *Scenario {
	s.timeout = d
	return s
}

// Expect adds a custom expectation.
func (s *Scenario) Expect(e Expectation) *Scenario {
	s.expectations = append(s.expectations, e)
	return s
}

// ExpectPhase asserts the final workflow phase.
func (s *Scenario) ExpectPhase(phase interview.Phase) *Scenario {
	return s.Expect(phaseExpectation{phase})
}

// ExpectOutputContains asserts the last turn's message contains substr.
func (s *Scenario) ExpectOutputContains(substr string) *Scenario {
	return s.Expect(outputExpectation{substr})
}

// ExpectEvent asserts an event of the given type was emitted.
func (s *Scenario) ExpectEvent(t core.EventType) *Scenario {
	return s.Expect(eventExpectation{t})
}

// ExpectSectionContains asserts the final document's section contains substr.
func (s *Scenario) ExpectSectionContains(key masterplan.SectionKey, substr string) *Scenario {
	return s.Expect(sectionExpectation{key, substr})
}

// Run executes the scenario against w and checks every expectation. The
// workflow must be freshly created and must carry the scenario's collector
// as its event emitter for event expectations to see anything.
func (s *Scenario) Run(t *testing.T, w *interview.Workflow, collector *EventCollector) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result := s.run(ctx, w)
	if collector != nil {
		result.Events = collector.Events()
	}

	for _, e := range s.expectations {
		if err := e.Check(result); err != nil {
			t.Errorf("scenario %q: %s: %v", s.name, e.Description(), err)
		}
	}
}

func (s *Scenario) run(ctx context.Context, w *interview.Workflow) *ScenarioResult {
	result := &ScenarioResult{}

	turn, err := w.Start(ctx)
	if err != nil {
		result.Error = err
		result.FinalPhase = w.Phase()
		return result
	}
	result.LastTurn = turn

	inputs := append(append([]string{}, s.answers...), s.feedback...)
	for _, input := range inputs {
		if w.Phase() == interview.PhaseDone || w.Phase() == interview.PhaseAbandoned {
			break
		}
		turn, err = w.Submit(ctx, input)
		if err != nil {
			result.Error = err
			break
		}
		result.LastTurn = turn
		if turn.Document != nil {
			result.Document = turn.Document
		}
	}

	result.FinalPhase = w.Phase()
	if doc := w.ApprovedDocument(); doc != nil {
		result.Document = doc
	}
	return result
}

type phaseExpectation struct{ want interview.Phase }

func (e phaseExpectation) Check(r *ScenarioResult) error {
	if r.FinalPhase != e.want {
		return fmt.Errorf("final phase = %s, want %s", r.FinalPhase, e.want)
	}
	return nil
}

func (e phaseExpectation) Description() string {
	return fmt.Sprintf("expect phase %s", e.want)
}

type outputExpectation struct{ substr string }

func (e outputExpectation) Check(r *ScenarioResult) error {
	if r.LastTurn == nil {
		return fmt.Errorf("no turn produced")
	}
	if !strings.Contains(r.LastTurn.Message, e.substr) {
		return fmt.Errorf("message %q does not contain %q", r.LastTurn.Message, e.substr)
	}
	return nil
}

func (e outputExpectation) Description() string {
	return fmt.Sprintf("expect output to contain %q", e.substr)
}

type eventExpectation struct{ want core.EventType }

func (e eventExpectation) Check(r *ScenarioResult) error {
	for _, ev := range r.Events {
		if ev.Type == e.want {
			return nil
		}
	}
	return fmt.Errorf("event %s not emitted (saw %d events)", e.want, len(r.Events))
}

func (e eventExpectation) Description() string {
	return fmt.Sprintf("expect event %s", e.want)
}

type sectionExpectation struct {
	key    masterplan.SectionKey
	substr string
}

func (e sectionExpectation) Check(r *ScenarioResult) error {
	if r.Document == nil {
		return fmt.Errorf("no document produced")
	}
	body := r.Document.Sections[e.key]
	if !strings.Contains(body, e.substr) {
		return fmt.Errorf("section %s = %q, want it to contain %q", e.key, body, e.substr)
	}
	return nil
}

func (e sectionExpectation) Description() string {
	return fmt.Sprintf("expect section %s to contain %q", e.key, e.substr)
}
