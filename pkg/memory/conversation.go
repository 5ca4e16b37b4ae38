// SPDX-License-Identifier: Apache-2.0

// Package memory provides conversation history backends for interview runs.
package memory

import (
	"context"
	"time"
)

// ConversationMessage represents a single (speaker, utterance) pair in a
// conversation history.
type ConversationMessage struct {
	ID        string            `json:"id"`
	SessionID string            `json:"session_id"`
	Role      string            `json:"role"` // system, user, assistant
	Content   string            `json:"content"`
	Topic     string            `json:"topic,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// ConversationStore stores and retrieves ordered conversation history for
// multi-turn interview runs. History is append-only; Clear discards a whole
// session (used on abandon and reset).
type ConversationStore interface {
	// AppendMessage adds a message to the conversation.
	AppendMessage(ctx context.Context, sessionID string, msg ConversationMessage) error

	// GetMessages retrieves all messages for a session, ordered by creation time.
	GetMessages(ctx context.Context, sessionID string) ([]ConversationMessage, error)

	// GetRecentMessages retrieves the last N messages for a session.
	GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]ConversationMessage, error)

	// Clear removes all messages for a session.
	Clear(ctx context.Context, sessionID string) error
}
