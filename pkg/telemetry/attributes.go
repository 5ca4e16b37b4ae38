// Copyright 2026 © The Planwright Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Semantic conventions for Planwright workflow telemetry.
// These follow OpenTelemetry naming conventions where applicable.
const (
	// Workflow attributes
	AttrWorkflowRunID   = "planwright.workflow.run_id"
	AttrWorkflowPhase   = "planwright.workflow.phase"
	AttrWorkflowPersona = "planwright.workflow.persona"
	AttrWorkflowTask    = "planwright.workflow.task"
	AttrWorkflowTopic   = "planwright.workflow.topic"

	// Session attributes
	AttrSessionID       = "planwright.session.id"
	AttrSessionMsgCount = "planwright.session.message_count"

	// Drafting attributes
	AttrDraftRevision = "planwright.draft.revision"
	AttrDraftSections = "planwright.draft.changed_sections"

	// LLM attributes (extending standard gen_ai conventions)
	AttrLLMModel        = "gen_ai.request.model"
	AttrLLMProvider     = "gen_ai.system"
	AttrLLMTokensInput  = "gen_ai.usage.input_tokens"
	AttrLLMTokensOutput = "gen_ai.usage.output_tokens"
	AttrLLMTokensTotal  = "gen_ai.usage.total_tokens"

	// Error attributes
	AttrErrorCode        = "planwright.error.code"
	AttrErrorRecoverable = "planwright.error.recoverable"
)

// WorkflowAttrs builds the common attribute set for workflow spans.
func WorkflowAttrs(runID, phase, personaID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrWorkflowRunID, runID),
		attribute.String(AttrWorkflowPhase, phase),
		attribute.String(AttrWorkflowPersona, personaID),
	}
}

// TopicAttr builds the attribute for the current interview topic.
func TopicAttr(topic string) attribute.KeyValue {
	return attribute.String(AttrWorkflowTopic, topic)
}
