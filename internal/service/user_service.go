// Package service implements the score upsert rules of the backend.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/stats"
)

// Messages returned to clients.
const (
	MsgInvalidUserID = "Invalid or missing userId"
	MsgInvalidEmail  = "Invalid email format"
	MsgInvalidScore  = "Invalid score data"
	MsgUserMismatch  = "User ID mismatch"
	MsgEmailInUse    = "Email already in use by another user"
	MsgUserCreated   = "User created successfully"
	MsgUserUpdated   = "User updated successfully"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ErrEmailInUse is returned when the submitted email belongs to another user.
var ErrEmailInUse = errors.New("email already in use by another user")

// ValidationError is a rejected submission; Message is safe to show clients.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UserRepo persists user records. Lookups return (nil, nil) when nothing matches
// and uniqueness violations surface as *model.DuplicateKeyError.
type UserRepo interface {
	FindByUserID(ctx context.Context, userID string) (*model.UserRecord, error)
	FindByEmail(ctx context.Context, email, excludeUserID string) (*model.UserRecord, error)
	Create(ctx context.Context, user *model.UserRecord) error
	Update(ctx context.Context, user *model.UserRecord) error
	List(ctx context.Context) ([]model.UserRecord, error)
	Top(ctx context.Context, limit int) ([]model.UserRecord, error)
}

// LeaderboardCache keeps the best score per user in a ranked set.
type LeaderboardCache interface {
	UpdateScore(ctx context.Context, userID string, score int) error
	Top(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

// ScoreSubmission is the untrusted request body. Fields stay loosely typed
// until Validate has checked them.
type ScoreSubmission struct {
	UserID   any `json:"userId"`
	Email    any `json:"email"`
	TopScore any `json:"topScore"`
}

// Submission is a validated ScoreSubmission.
type Submission struct {
	UserID   string
	Email    string
	WPM      float64
	Accuracy float64
	Error    float64
	Timing   float64
}

// UpsertResult is the stored record after an upsert.
type UpsertResult struct {
	User    *model.UserRecord
	Created bool
}

// Message is the client-facing outcome.
func (r *UpsertResult) Message() string {
	if r.Created {
		return MsgUserCreated
	}
	return MsgUserUpdated
}

// Validate checks a submission against pathUserID, stopping at the first failure.
func Validate(pathUserID string, in ScoreSubmission) (Submission, error) {
	userID, ok := in.UserID.(string)
	if !ok || strings.TrimSpace(userID) == "" {
		return Submission{}, &ValidationError{Message: MsgInvalidUserID}
	}

	email, ok := in.Email.(string)
	email = strings.TrimSpace(email)
	if !ok || !emailPattern.MatchString(email) {
		return Submission{}, &ValidationError{Message: MsgInvalidEmail}
	}

	top, ok := in.TopScore.(map[string]any)
	if !ok {
		return Submission{}, &ValidationError{Message: MsgInvalidScore}
	}
	var fields [4]float64
	for i, key := range []string{"wpm", "accuracy", "error", "timing"} {
		v, ok := top[key].(float64)
		if !ok {
			return Submission{}, &ValidationError{Message: MsgInvalidScore}
		}
		fields[i] = v
	}
	if fields[3] <= 0 {
		return Submission{}, &ValidationError{Message: MsgInvalidScore}
	}

	if userID != pathUserID {
		return Submission{}, &ValidationError{Message: MsgUserMismatch}
	}

	return Submission{
		UserID:   userID,
		Email:    email,
		WPM:      fields[0],
		Accuracy: fields[1],
		Error:    fields[2],
		Timing:   fields[3],
	}, nil
}

// UserService applies score submissions to a UserRepo.
type UserService struct {
	repo        UserRepo
	leaderboard LeaderboardCache
}

// NewUserService creates a service. leaderboard may be nil.
func NewUserService(repo UserRepo, leaderboard LeaderboardCache) *UserService {
	return &UserService{repo: repo, leaderboard: leaderboard}
}

// Upsert validates in, recomputes the score and creates or updates the user.
// The stored top score only changes when the new score is strictly higher.
func (s *UserService) Upsert(ctx context.Context, pathUserID string, in ScoreSubmission) (*UpsertResult, error) {
	sub, err := Validate(pathUserID, in)
	if err != nil {
		return nil, err
	}
	score, err := stats.Score(sub.WPM, sub.Accuracy, sub.Timing)
	if err != nil {
		return nil, &ValidationError{Message: MsgInvalidScore}
	}
	top := &model.TopScore{
		WPM:      sub.WPM,
		Timing:   sub.Timing,
		Accuracy: sub.Accuracy,
		Error:    sub.Error,
		Score:    score,
	}

	user, err := s.repo.FindByUserID(ctx, sub.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user == nil {
		user = &model.UserRecord{UserID: sub.UserID, Email: sub.Email, TopScore: top}
		if err := s.repo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		s.pushScore(ctx, user)
		return &UpsertResult{User: user, Created: true}, nil
	}

	if user.Email != sub.Email {
		owner, err := s.repo.FindByEmail(ctx, sub.Email, sub.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if owner != nil {
			return nil, ErrEmailInUse
		}
	}

	updated := *user
	updated.Email = sub.Email
	if updated.TopScore == nil || score > updated.TopScore.Score {
		updated.TopScore = top
	}
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	s.pushScore(ctx, &updated)
	return &UpsertResult{User: &updated, Created: false}, nil
}

// ListUsers returns every stored user.
func (s *UserService) ListUsers(ctx context.Context) ([]model.UserRecord, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Leaderboard returns the best limit users. The cache is preferred; the
// repository answers when there is no cache or the cache fails.
func (s *UserService) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	limit = clampLimit(limit)
	if s.leaderboard != nil {
		entries, err := s.leaderboard.Top(ctx, limit)
		if err == nil {
			return entries, nil
		}
		log.Printf("leaderboard cache read failed, using store: %v", err)
	}
	users, err := s.repo.Top(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	entries := make([]model.LeaderboardEntry, 0, len(users))
	for _, u := range users {
		if u.TopScore == nil {
			continue
		}
		entries = append(entries, model.LeaderboardEntry{UserID: u.UserID, Score: u.TopScore.Score, Rank: len(entries) + 1})
	}
	return entries, nil
}

// WarmLeaderboard copies every stored top score into the cache.
func (s *UserService) WarmLeaderboard(ctx context.Context) (int, error) {
	if s.leaderboard == nil {
		return 0, nil
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}
	n := 0
	for _, u := range users {
		if u.TopScore == nil {
			continue
		}
		if err := s.leaderboard.UpdateScore(ctx, u.UserID, u.TopScore.Score); err != nil {
			return n, fmt.Errorf("failed to cache score for %s: %w", u.UserID, err)
		}
		n++
	}
	return n, nil
}

func (s *UserService) pushScore(ctx context.Context, user *model.UserRecord) {
	if s.leaderboard == nil || user.TopScore == nil {
		return
	}
	if err := s.leaderboard.UpdateScore(ctx, user.UserID, user.TopScore.Score); err != nil {
		log.Printf("failed to update leaderboard for %s: %v", user.UserID, err)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		return MaxLeaderboardLimit
	}
	return limit
}
