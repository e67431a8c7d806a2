// Package store provides SQLite-based persistence for oppdesk session data.
// The opportunity table itself lives in the flat-file record store; this
// database only holds chat sessions and the tool-invocation audit trail.
package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const currentSchemaVersion = 1

// Store is the SQLite-backed persistence layer for oppdesk sessions.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a SQLite database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL keeps reads cheap while a chat turn is being journaled.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies the schema if not already at the current version.
func (s *Store) migrate() error {
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&name)

	if errors.Is(err, sql.ErrNoRows) {
		if _, err := s.db.Exec(schemaSQL); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
		_, err = s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion)
		return err
	}
	if err != nil {
		return fmt.Errorf("checking schema version: %w", err)
	}

	var version int
	if err := s.db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version < currentSchemaVersion {
		return fmt.Errorf("schema version %d is older than %d, migration not yet implemented", version, currentSchemaVersion)
	}
	return nil
}

// --- Session management ---

// Session represents one chat session.
type Session struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	UserName  string    `json:"user_name,omitempty"`
	Status    string    `json:"status"`
}

// CreateSession records a new session under the given id.
func (s *Store) CreateSession(id, userName string) error {
	_, err := s.db.Exec(
		"INSERT INTO sessions (id, user_name) VALUES (?, NULLIF(?, ''))",
		id, userName,
	)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// UpdateSessionStatus sets the session status ("active", "expired", "closed").
func (s *Store) UpdateSessionStatus(id, status string) error {
	_, err := s.db.Exec("UPDATE sessions SET status = ? WHERE id = ?", status, id)
	return err
}

// GetSession returns a session by ID.
func (s *Store) GetSession(id string) (*Session, error) {
	sess := &Session{}
	var userName sql.NullString
	err := s.db.QueryRow(
		"SELECT id, started_at, user_name, status FROM sessions WHERE id = ?", id,
	).Scan(&sess.ID, &sess.StartedAt, &userName, &sess.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	sess.UserName = userName.String
	return sess, nil
}

// --- Tool call journal ---

// ToolCall is one journaled tool invocation.
type ToolCall struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	CalledAt  time.Time `json:"called_at"`
	Tool      string    `json:"tool"`
	Arguments string    `json:"arguments_json,omitempty"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Duration  time.Duration
}

// AddToolCall journals one tool invocation.
func (s *Store) AddToolCall(tc *ToolCall) error {
	result, err := s.db.Exec(
		`INSERT INTO tool_calls (session_id, tool, arguments_json, status, message, duration_ms)
		 VALUES (?, ?, NULLIF(?, ''), ?, NULLIF(?, ''), ?)`,
		tc.SessionID, tc.Tool, tc.Arguments, tc.Status, tc.Message, tc.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("journaling tool call: %w", err)
	}
	tc.ID, _ = result.LastInsertId()
	return nil
}

// ToolCalls returns a session's journaled invocations in call order.
func (s *Store) ToolCalls(sessionID string) ([]*ToolCall, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, called_at, tool, COALESCE(arguments_json, ''),
		 status, COALESCE(message, ''), duration_ms
		 FROM tool_calls WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("reading tool calls: %w", err)
	}
	defer rows.Close()

	var calls []*ToolCall
	for rows.Next() {
		tc := &ToolCall{}
		var durationMS int64
		if err := rows.Scan(&tc.ID, &tc.SessionID, &tc.CalledAt, &tc.Tool,
			&tc.Arguments, &tc.Status, &tc.Message, &durationMS); err != nil {
			return nil, err
		}
		tc.Duration = time.Duration(durationMS) * time.Millisecond
		calls = append(calls, tc)
	}
	return calls, rows.Err()
}
