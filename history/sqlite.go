// history/sqlite.go
package history

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sammcj/promptlab/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
    session_id   TEXT    NOT NULL,
    seq          INTEGER NOT NULL,
    role         TEXT    NOT NULL,
    content      TEXT    NOT NULL,
    name         TEXT    NOT NULL DEFAULT '',
    tool_call_id TEXT    NOT NULL DEFAULT '',
    tool_calls   TEXT    NOT NULL DEFAULT '',
    created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (session_id, seq)
)`

// SQLiteStore persists transcripts in a SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &types.HistoryError{Operation: "open", Message: "failed to open database", Err: err}
	}
	// sqlite allows one writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &types.HistoryError{Operation: "open", Message: "failed to create schema", Err: err}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Messages(ctx context.Context, session string) ([]types.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT role, content, name, tool_call_id, tool_calls
        FROM messages WHERE session_id = ? ORDER BY seq`, session)
	if err != nil {
		return nil, &types.HistoryError{Operation: "read", Session: session, Message: "query failed", Err: err}
	}
	defer rows.Close()

	var msgs []types.Message
	for rows.Next() {
		var (
			m         types.Message
			role      string
			toolCalls string
		)
		if err := rows.Scan(&role, &m.Content, &m.Name, &m.ToolCallID, &toolCalls); err != nil {
			return nil, &types.HistoryError{Operation: "read", Session: session, Message: "scan failed", Err: err}
		}
		m.Role = types.Role(role)
		if toolCalls != "" {
			if err := json.Unmarshal([]byte(toolCalls), &m.ToolCalls); err != nil {
				return nil, &types.HistoryError{Operation: "read", Session: session, Message: "corrupt tool calls", Err: err}
			}
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.HistoryError{Operation: "read", Session: session, Message: "iteration failed", Err: err}
	}
	return msgs, nil
}

func (s *SQLiteStore) Append(ctx context.Context, session string, msgs ...types.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &types.HistoryError{Operation: "append", Session: session, Message: "begin failed", Err: err}
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), -1) + 1 FROM messages WHERE session_id = ?`, session).Scan(&next); err != nil {
		return &types.HistoryError{Operation: "append", Session: session, Message: "sequence lookup failed", Err: err}
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO messages (session_id, seq, role, content, name, tool_call_id, tool_calls)
        VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return &types.HistoryError{Operation: "append", Session: session, Message: "prepare failed", Err: err}
	}
	defer stmt.Close()

	for i, m := range msgs {
		toolCalls := ""
		if len(m.ToolCalls) > 0 {
			data, err := json.Marshal(m.ToolCalls)
			if err != nil {
				return &types.HistoryError{Operation: "append", Session: session, Message: "encode tool calls", Err: err}
			}
			toolCalls = string(data)
		}
		if _, err := stmt.ExecContext(ctx, session, next+i, string(m.Role), m.Content, m.Name, m.ToolCallID, toolCalls); err != nil {
			return &types.HistoryError{Operation: "append", Session: session, Message: "insert failed", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &types.HistoryError{Operation: "append", Session: session, Message: "commit failed", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context, session string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, session); err != nil {
		return &types.HistoryError{Operation: "clear", Session: session, Message: "delete failed", Err: err}
	}
	return nil
}

// Sessions lists stored session ids, most recent first
func (s *SQLiteStore) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT session_id FROM messages
        GROUP BY session_id ORDER BY MAX(created_at) DESC, session_id`)
	if err != nil {
		return nil, &types.HistoryError{Operation: "sessions", Message: "query failed", Err: err}
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &types.HistoryError{Operation: "sessions", Message: "scan failed", Err: err}
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
