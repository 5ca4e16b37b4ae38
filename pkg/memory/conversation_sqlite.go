// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const conversationTable = "interview_messages"

// SQLiteConversation persists conversation history in a SQLite database so
// runs survive process restarts.
type SQLiteConversation struct {
	db *sql.DB
}

// NewSQLiteConversation creates a SQLite-backed conversation store and
// ensures schema.
func NewSQLiteConversation(db *sql.DB) (*SQLiteConversation, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if err := ensureConversationSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteConversation{db: db}, nil
}

// OpenSQLiteConversation opens (or creates) the database at dsn and returns a
// store backed by it.
func OpenSQLiteConversation(dsn string) (*SQLiteConversation, *sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}
	store, err := NewSQLiteConversation(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

func ensureConversationSchema(db *sql.DB) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			topic TEXT NOT NULL DEFAULT '',
			metadata_json BLOB,
			created_at INTEGER NOT NULL
		);`, conversationTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_session ON %s(session_id, created_at);`,
			conversationTable, conversationTable),
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// AppendMessage adds a message to the conversation.
func (s *SQLiteConversation) AppendMessage(ctx context.Context, sessionID string, msg ConversationMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.SessionID == "" {
		msg.SessionID = sessionID
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	var meta []byte
	if len(msg.Metadata) > 0 {
		var err error
		meta, err = json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, session_id, role, content, topic, metadata_json, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, conversationTable),
		msg.ID, msg.SessionID, msg.Role, msg.Content, msg.Topic, meta, msg.CreatedAt.UnixNano())
	return err
}

// GetMessages retrieves all messages for a session, ordered by creation time.
func (s *SQLiteConversation) GetMessages(ctx context.Context, sessionID string) ([]ConversationMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, session_id, role, content, topic, metadata_json, created_at
			FROM %s WHERE session_id = ? ORDER BY created_at ASC, rowid ASC`, conversationTable),
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// GetRecentMessages retrieves the last N messages for a session.
func (s *SQLiteConversation) GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]ConversationMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, session_id, role, content, topic, metadata_json, created_at FROM
			(SELECT id, session_id, role, content, topic, metadata_json, created_at, rowid AS rid
				FROM %s WHERE session_id = ? ORDER BY created_at DESC, rid DESC LIMIT ?)
			ORDER BY created_at ASC, rid ASC`, conversationTable),
		sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// Clear removes all messages for a session.
func (s *SQLiteConversation) Clear(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE session_id = ?`, conversationTable), sessionID)
	return err
}

func scanMessages(rows *sql.Rows) ([]ConversationMessage, error) {
	var messages []ConversationMessage
	for rows.Next() {
		var (
			msg   ConversationMessage
			meta  []byte
			nanos int64
		)
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.Topic, &meta, &nanos); err != nil {
			return nil, err
		}
		msg.CreatedAt = time.Unix(0, nanos)
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &msg.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
