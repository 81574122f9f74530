// Package store persists sessions and their assessment history in SQLite
// so a before/after record survives a server restart.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/HendryAvila/datacheck/internal/history"
	"github.com/HendryAvila/datacheck/internal/quality"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrNotFound is returned when a session is not in the store.
var ErrNotFound = errors.New("store: not found")

const timeLayout = time.RFC3339Nano

// ─── Types ───────────────────────────────────────────────────────────────────

// Assessment is one stored history entry.
type Assessment struct {
	SessionID  string                   `json:"session_id"`
	Seq        int                      `json:"seq"`
	Target     string                   `json:"target"`
	Status     quality.Status           `json:"status"`
	Score      *float64                 `json:"score,omitempty"`
	RecordedAt time.Time                `json:"recorded_at"`
	Result     quality.AssessmentResult `json:"result"`
}

// Stats summarizes the store.
type Stats struct {
	Sessions    int `json:"sessions"`
	Assessments int `json:"assessments"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds store configuration.
type Config struct {
	DataDir string
}

// DefaultConfig returns the default configuration for the store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".datacheck")}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the SQLite-backed history store.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New opens (creating if needed) the store under cfg.DataDir.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "history.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id          TEXT PRIMARY KEY,
			name        TEXT    NOT NULL,
			context_key TEXT    NOT NULL,
			row_count   INTEGER NOT NULL,
			col_count   INTEGER NOT NULL,
			opened_at   TEXT    NOT NULL
		);

		CREATE TABLE IF NOT EXISTS assessments (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id  TEXT    NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			seq         INTEGER NOT NULL,
			target      TEXT    NOT NULL,
			status      TEXT    NOT NULL,
			score       REAL,
			result      TEXT    NOT NULL,
			recorded_at TEXT    NOT NULL,
			UNIQUE (session_id, seq)
		);

		CREATE INDEX IF NOT EXISTS idx_assessments_session ON assessments(session_id, seq);
		CREATE INDEX IF NOT EXISTS idx_sessions_context ON sessions(context_key);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Sessions ────────────────────────────────────────────────────────────────

// SaveSession inserts or refreshes a session row.
func (s *Store) SaveSession(info history.SessionInfo) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, name, context_key, row_count, col_count, opened_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		info.ID, info.Name, info.ContextKey, info.Rows, info.Columns, info.OpenedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("store: save session %s: %w", info.ID, err)
	}
	return nil
}

// GetSession returns a stored session.
func (s *Store) GetSession(id string) (*history.SessionInfo, error) {
	row := s.db.QueryRow(
		`SELECT id, name, context_key, row_count, col_count, opened_at FROM sessions WHERE id = ?`, id,
	)
	var info history.SessionInfo
	var opened string
	if err := row.Scan(&info.ID, &info.Name, &info.ContextKey, &info.Rows, &info.Columns, &opened); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get session %s: %w", id, err)
	}
	info.OpenedAt, _ = time.Parse(timeLayout, opened)
	return &info, nil
}

// SessionsByContext returns stored sessions opened on the same content,
// newest first.
func (s *Store) SessionsByContext(contextKey string) ([]history.SessionInfo, error) {
	rows, err := s.db.Query(
		`SELECT id, name, context_key, row_count, col_count, opened_at
		 FROM sessions WHERE context_key = ? ORDER BY opened_at DESC`, contextKey,
	)
	if err != nil {
		return nil, fmt.Errorf("store: sessions by context: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []history.SessionInfo
	for rows.Next() {
		var info history.SessionInfo
		var opened string
		if err := rows.Scan(&info.ID, &info.Name, &info.ContextKey, &info.Rows, &info.Columns, &opened); err != nil {
			return nil, err
		}
		info.OpenedAt, _ = time.Parse(timeLayout, opened)
		out = append(out, info)
	}
	return out, rows.Err()
}

// ─── Assessments ─────────────────────────────────────────────────────────────

// AppendAssessment stores one history entry. The cleaned rows are not
// stored; the result keeps its counts and fingerprint.
func (s *Store) AppendAssessment(sessionID string, e history.Entry) error {
	if e.Result == nil {
		return history.ErrNilResult
	}
	blob, err := json.Marshal(e.Result)
	if err != nil {
		return fmt.Errorf("store: encode result: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO assessments (session_id, seq, target, status, score, result, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, e.Seq, e.Result.TargetColumn, string(e.Result.Status),
		e.Result.ValidationScore, string(blob), e.RecordedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("store: append assessment %s#%d: %w", sessionID, e.Seq, err)
	}
	return nil
}

// ListAssessments returns a session's stored history, oldest first.
func (s *Store) ListAssessments(sessionID string) ([]Assessment, error) {
	rows, err := s.db.Query(
		`SELECT session_id, seq, target, status, score, result, recorded_at
		 FROM assessments WHERE session_id = ? ORDER BY seq ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list assessments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Assessment
	for rows.Next() {
		var a Assessment
		var status, blob, recorded string
		var score sql.NullFloat64
		if err := rows.Scan(&a.SessionID, &a.Seq, &a.Target, &status, &score, &blob, &recorded); err != nil {
			return nil, err
		}
		a.Status = quality.Status(status)
		if score.Valid {
			v := score.Float64
			a.Score = &v
		}
		a.RecordedAt, _ = time.Parse(timeLayout, recorded)
		if err := json.Unmarshal([]byte(blob), &a.Result); err != nil {
			return nil, fmt.Errorf("store: decode result %s#%d: %w", sessionID, a.Seq, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAssessments removes a session's history and returns how many
// entries were removed.
func (s *Store) DeleteAssessments(sessionID string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM assessments WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("store: delete assessments: %w", err)
	}
	return res.RowsAffected()
}

// Stats counts stored sessions and assessments.
func (s *Store) Stats() (*Stats, error) {
	var st Stats
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&st.Sessions); err != nil {
		return nil, fmt.Errorf("store: stats: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM assessments`).Scan(&st.Assessments); err != nil {
		return nil, fmt.Errorf("store: stats: %w", err)
	}
	return &st, nil
}
