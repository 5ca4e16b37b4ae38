// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// WorkflowMetrics tracks interview workflow activity for production monitoring.
type WorkflowMetrics struct {
	// questionsAsked counts questions emitted, by topic.
	questionsAsked metric.Int64Counter

	// reasks counts repeated questions after empty or off-topic answers.
	reasks metric.Int64Counter

	// topicsUnanswered counts topics given up on after the re-ask budget.
	topicsUnanswered metric.Int64Counter

	// drafts counts masterplan drafting attempts, by outcome.
	drafts metric.Int64Counter

	// revisions counts review cycles that requested changes.
	revisions metric.Int64Counter

	// noChangeWarnings counts revision cycles that produced identical output.
	noChangeWarnings metric.Int64Counter

	// turnDuration measures wall time per workflow turn.
	turnDuration metric.Float64Histogram
}

// NewWorkflowMetrics creates a workflow metrics tracker with OTEL meters.
func NewWorkflowMetrics() (*WorkflowMetrics, error) {
	meter := otel.Meter("planwright/workflow")

	questionsAsked, err := meter.Int64Counter(
		"planwright.workflow.questions",
		metric.WithDescription("Questions asked, by topic"),
	)
	if err != nil {
		return nil, err
	}

	reasks, err := meter.Int64Counter(
		"planwright.workflow.reasks",
		metric.WithDescription("Questions repeated after unusable answers"),
	)
	if err != nil {
		return nil, err
	}

	topicsUnanswered, err := meter.Int64Counter(
		"planwright.workflow.topics_unanswered",
		metric.WithDescription("Topics marked unanswered after the re-ask budget"),
	)
	if err != nil {
		return nil, err
	}

	drafts, err := meter.Int64Counter(
		"planwright.workflow.drafts",
		metric.WithDescription("Masterplan drafting attempts, by outcome"),
	)
	if err != nil {
		return nil, err
	}

	revisions, err := meter.Int64Counter(
		"planwright.workflow.revisions",
		metric.WithDescription("Review cycles that requested changes"),
	)
	if err != nil {
		return nil, err
	}

	noChangeWarnings, err := meter.Int64Counter(
		"planwright.workflow.nochange_warnings",
		metric.WithDescription("Revision cycles that produced identical output"),
	)
	if err != nil {
		return nil, err
	}

	turnDuration, err := meter.Float64Histogram(
		"planwright.workflow.turn_duration_ms",
		metric.WithDescription("Wall time per workflow turn in milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	return &WorkflowMetrics{
		questionsAsked:   questionsAsked,
		reasks:           reasks,
		topicsUnanswered: topicsUnanswered,
		drafts:           drafts,
		revisions:        revisions,
		noChangeWarnings: noChangeWarnings,
		turnDuration:     turnDuration,
	}, nil
}

// RecordQuestion records a question asked for topic.
func (m *WorkflowMetrics) RecordQuestion(ctx context.Context, topic string, reask bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrWorkflowTopic, topic))
	m.questionsAsked.Add(ctx, 1, attrs)
	if reask {
		m.reasks.Add(ctx, 1, attrs)
	}
}

// RecordTopicUnanswered records a topic abandoned after the re-ask budget.
func (m *WorkflowMetrics) RecordTopicUnanswered(ctx context.Context, topic string) {
	if m == nil {
		return
	}
	m.topicsUnanswered.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrWorkflowTopic, topic)))
}

// RecordDraft records a drafting attempt with its outcome ("ok",
// "insufficient_input", "llm_error").
func (m *WorkflowMetrics) RecordDraft(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.drafts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordRevision records a review cycle that requested changes. noChange
// marks cycles whose re-draft was identical to the previous document.
func (m *WorkflowMetrics) RecordRevision(ctx context.Context, noChange bool) {
	if m == nil {
		return
	}
	m.revisions.Add(ctx, 1)
	if noChange {
		m.noChangeWarnings.Add(ctx, 1)
	}
}

// RecordTurn records the wall time of one workflow turn.
func (m *WorkflowMetrics) RecordTurn(ctx context.Context, phase string, ms float64) {
	if m == nil {
		return
	}
	m.turnDuration.Record(ctx, ms, metric.WithAttributes(attribute.String(AttrWorkflowPhase, phase)))
}
