package core

import (
	"context"
	"time"
)

// EventType identifies a semantic event emitted by the interview workflow.
type EventType string

const (
	EventWorkflowStarted   EventType = "workflow.started"
	EventQuestionAsked     EventType = "workflow.question.asked"
	EventAnswerRecorded    EventType = "workflow.answer.recorded"
	EventTopicUnanswered   EventType = "workflow.topic.unanswered"
	EventDraftCreated      EventType = "workflow.draft.created"
	EventReviewApproved    EventType = "workflow.review.approved"
	EventReviewRevised     EventType = "workflow.review.revised"
	EventNoChangeWarning   EventType = "workflow.review.nochange"
	EventWorkflowDone      EventType = "workflow.done"
	EventWorkflowAbandoned EventType = "workflow.abandoned"
)

// Event captures a semantic streaming/logging event.
type Event struct {
	Type      EventType
	Persona   string
	RunID     string
	Timestamp time.Time
	Payload   map[string]any
}

// EventEmitter receives semantic events.
type EventEmitter interface {
	Emit(ctx context.Context, event Event)
}

// NoopEventEmitter is a default no-op implementation.
type NoopEventEmitter struct{}

// Emit implements EventEmitter.
func (NoopEventEmitter) Emit(_ context.Context, _ Event) {}

// NewEvent builds a default event with timestamp.
func NewEvent(eventType EventType, persona string, runID string, payload map[string]any) Event {
	return Event{
		Type:      eventType,
		Persona:   persona,
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
