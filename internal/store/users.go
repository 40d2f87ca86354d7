package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/speedtype/internal/model"
)

const userColumns = `user_id, email, has_top_score, wpm, timing, accuracy, error, score, created_at, updated_at`

// FindByUserID returns the user or nil when absent.
func (s *Store) FindByUserID(ctx context.Context, userID string) (*model.UserRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID)
	return scanUser(row)
}

// FindByEmail returns a user owning email other than excludeUserID, or nil.
func (s *Store) FindByEmail(ctx context.Context, email, excludeUserID string) (*model.UserRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? AND user_id != ?`, email, excludeUserID)
	return scanUser(row)
}

// Create inserts a new user.
func (s *Store) Create(ctx context.Context, user *model.UserRecord) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	top, has := topScoreColumns(user.TopScore)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.UserID, user.Email, has, top.WPM, top.Timing, top.Accuracy, top.Error, top.Score,
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	return wrapUniqueErr(err)
}

// Update replaces the stored email and top score of an existing user.
func (s *Store) Update(ctx context.Context, user *model.UserRecord) error {
	user.UpdatedAt = time.Now().UTC()
	top, has := topScoreColumns(user.TopScore)
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET email = ?, has_top_score = ?, wpm = ?, timing = ?, accuracy = ?, error = ?, score = ?, updated_at = ?
		 WHERE user_id = ?`,
		user.Email, has, top.WPM, top.Timing, top.Accuracy, top.Error, top.Score,
		user.UpdatedAt.Format(time.RFC3339Nano), user.UserID,
	)
	if err != nil {
		return wrapUniqueErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %q not found", user.UserID)
	}
	return nil
}

// List returns all users in insertion order.
func (s *Store) List(ctx context.Context) ([]model.UserRecord, error) {
	return s.queryUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY rowid ASC`)
}

// Top returns up to limit users with a top score, highest first.
func (s *Store) Top(ctx context.Context, limit int) ([]model.UserRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	return s.queryUsers(ctx, `SELECT `+userColumns+` FROM users
		WHERE has_top_score = 1
		ORDER BY score DESC, user_id ASC
		LIMIT ?`, limit)
}

func (s *Store) queryUsers(ctx context.Context, query string, args ...any) ([]model.UserRecord, error) {
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

	users := []model.UserRecord{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.UserRecord, error) {
	var user model.UserRecord
	var top model.TopScore
	var has bool
	var createdAt, updatedAt string
	err := row.Scan(&user.UserID, &user.Email, &has, &top.WPM, &top.Timing, &top.Accuracy, &top.Error, &top.Score, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if has {
		user.TopScore = &top
	}
	if user.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, err
	}
	if user.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}

func topScoreColumns(top *model.TopScore) (model.TopScore, bool) {
	if top == nil {
		return model.TopScore{}, false
	}
	return *top, true
}

// wrapUniqueErr converts SQLite unique constraint failures into DuplicateKeyError.
func wrapUniqueErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	const marker = "UNIQUE constraint failed: users."
	idx := strings.Index(msg, marker)
	if idx < 0 {
		return err
	}
	column := msg[idx+len(marker):]
	if end := strings.IndexAny(column, " ,)"); end >= 0 {
		column = column[:end]
	}
	field := column
	if column == "user_id" {
		field = "userId"
	}
	return &model.DuplicateKeyError{Field: field, Err: err}
}
