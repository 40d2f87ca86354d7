// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/speedtype/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for local session history and user scores.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps read-modify-write sequences on one SQLite handle.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			lang TEXT NOT NULL,
			wpm REAL NOT NULL,
			cpm REAL NOT NULL,
			accuracy REAL NOT NULL,
			error REAL NOT NULL,
			timing REAL NOT NULL,
			score INTEGER NOT NULL,
			submitted INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			has_top_score INTEGER NOT NULL DEFAULT 0,
			wpm REAL NOT NULL DEFAULT 0,
			timing REAL NOT NULL DEFAULT 0,
			accuracy REAL NOT NULL DEFAULT 0,
			error REAL NOT NULL DEFAULT 0,
			score INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_users_score ON users(score);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a completed practice session.
func (s *Store) InsertSession(ctx context.Context, rec model.SessionRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (started_at, ended_at, lang, wpm, cpm, accuracy, error, timing, score, submitted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.StartedAt.Format(time.RFC3339Nano),
		rec.EndedAt.Format(time.RFC3339Nano),
		rec.Lang,
		rec.Results.WPM,
		rec.Results.CPM,
		rec.Results.Accuracy,
		rec.Results.Error,
		rec.Results.Timing,
		rec.Score,
		rec.Submitted,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// MarkSubmitted flags a session as accepted by the score server.
func (s *Store) MarkSubmitted(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET submitted = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %d not found", id)
	}
	return nil
}

// ListSessions returns sessions filtered by cfg, oldest first.
func (s *Store) ListSessions(ctx context.Context, cfg model.HistoryConfig) ([]model.SessionRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Lang != "" {
		clauses = append(clauses, "lang = ?")
		args = append(args, cfg.Lang)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, started_at, ended_at, lang, wpm, cpm, accuracy, error, timing, score, submitted
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionRecord
	for rows.Next() {
		var rec model.SessionRecord
		var startedAt, endedAt string
		if err := rows.Scan(&rec.ID, &startedAt, &endedAt, &rec.Lang,
			&rec.Results.WPM, &rec.Results.CPM, &rec.Results.Accuracy, &rec.Results.Error, &rec.Results.Timing,
			&rec.Score, &rec.Submitted); err != nil {
			return nil, err
		}
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if rec.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}
