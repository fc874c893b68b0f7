// Package history provides SQLite-based persistence of session runs.
// Each critiq session and its navigation attempts are recorded so past
// results can be compared across runs of the same site.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ShayCichocki/critiq/pkg/models"
)

// Store wraps an SQLite database holding session history.
type Store struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// DefaultPath returns the per-user history database path.
func DefaultPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "critiq", "history.db")
}

// Open opens the history database at the given path, creating parent
// directories and applying the schema. WAL mode is enabled for
// concurrent reads.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{conn: conn, path: path}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := s.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Sessions},
		{2, migrationV2Attempts},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := s.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

const migrationV1Sessions = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	app_url TEXT NOT NULL,
	persona_type TEXT NOT NULL,
	started_at DATETIME NOT NULL,
	finished_at DATETIME,
	attempts_used INTEGER NOT NULL DEFAULT 0,
	completion_rate REAL NOT NULL DEFAULT 0,
	termination_reason TEXT,
	status TEXT NOT NULL DEFAULT 'running'
);

CREATE INDEX IF NOT EXISTS idx_sessions_app_url ON sessions(app_url);
CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
`

const migrationV2Attempts = `
CREATE TABLE IF NOT EXISTS attempts (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	attempt_num INTEGER NOT NULL,
	decision TEXT,
	degraded INTEGER NOT NULL DEFAULT 0,
	completion_rate REAL NOT NULL DEFAULT 0,
	recorded_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attempts_session_id ON attempts(session_id);
`

// SessionRecord is one row from the sessions table.
type SessionRecord struct {
	ID                string
	AppURL            string
	PersonaType       string
	StartedAt         time.Time
	FinishedAt        *time.Time
	AttemptsUsed      int
	CompletionRate    float64
	TerminationReason string
	Status            string
}

// BeginSession inserts a running session row and returns its ID.
func (s *Store) BeginSession(appURL, personaType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	_, err := s.conn.Exec(
		`INSERT INTO sessions (id, app_url, persona_type, started_at, status)
		 VALUES (?, ?, ?, ?, 'running')`,
		id, appURL, personaType, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

// RecordAttempt inserts one verified attempt for a session.
func (s *Store) RecordAttempt(sessionID string, attemptNum int, decision models.Decision, degraded bool, completionRate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(
		`INSERT INTO attempts (id, session_id, attempt_num, decision, degraded, completion_rate, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), sessionID, attemptNum, string(decision), boolToInt(degraded), completionRate, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// FinishSession marks a session done and records its final numbers.
func (s *Store) FinishSession(sessionID string, attemptsUsed int, completionRate float64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(
		`UPDATE sessions
		 SET finished_at = ?, attempts_used = ?, completion_rate = ?, termination_reason = ?, status = 'done'
		 WHERE id = ?`,
		time.Now().UTC(), attemptsUsed, completionRate, reason, sessionID,
	)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	return nil
}

// RecentSessions returns up to limit finished or running sessions,
// newest first.
func (s *Store) RecentSessions(limit int) ([]SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	rows, err := s.conn.Query(
		`SELECT id, app_url, persona_type, started_at, finished_at,
		        attempts_used, completion_rate, COALESCE(termination_reason, ''), status
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var r SessionRecord
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.AppURL, &r.PersonaType, &r.StartedAt, &finished,
			&r.AttemptsUsed, &r.CompletionRate, &r.TerminationReason, &r.Status); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AttemptCount returns the number of recorded attempts for a session.
func (s *Store) AttemptCount(sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	row := s.conn.QueryRow("SELECT COUNT(*) FROM attempts WHERE session_id = ?", sessionID)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
