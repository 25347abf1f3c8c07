// Package session persists conversation history in SQLite so the
// extractor can resolve follow-up questions against recent turns.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"

	"sellerpulse/internal/perception"
)

// Store is a SQLite-backed conversation history store. Safe for
// concurrent use; database/sql serializes access to the single
// connection pool.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes the SQLite database at the given path, creating the
// directory and schema as needed.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		category TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(session_id) REFERENCES sessions(id)
	);
	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize session schema: %w", err)
	}
	return nil
}

// NewSession creates a session and returns its id.
func (s *Store) NewSession(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx, "INSERT INTO sessions (id) VALUES (?)", id); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// AppendTurn records one conversation turn. Unknown session ids are
// registered implicitly so callers can bring their own identifiers.
func (s *Store) AppendTurn(ctx context.Context, sessionID, role, content, category string) error {
	if _, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO sessions (id) VALUES (?)", sessionID); err != nil {
		return fmt.Errorf("failed to register session: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO turns (session_id, role, content, category) VALUES (?, ?, ?, ?)",
		sessionID, role, content, category); err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// RecentTurns returns the last limit turns of a session, oldest first,
// in the shape the extractor consumes.
func (s *Store) RecentTurns(ctx context.Context, sessionID string, limit int) ([]perception.Turn, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content FROM (
			SELECT id, role, content FROM turns
			WHERE session_id = ?
			ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []perception.Turn
	for rows.Next() {
		var t perception.Turn
		if err := rows.Scan(&t.Role, &t.Content); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
