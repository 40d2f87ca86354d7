package service

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"

	"pgregory.net/rapid"

	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/store"
)

type memLeaderboard struct {
	scores map[string]int
	err    error
}

func newMemLeaderboard() *memLeaderboard {
	return &memLeaderboard{scores: map[string]int{}}
}

func (m *memLeaderboard) UpdateScore(_ context.Context, userID string, score int) error {
	if m.err != nil {
		return m.err
	}
	if cur, ok := m.scores[userID]; !ok || score > cur {
		m.scores[userID] = score
	}
	return nil
}

func (m *memLeaderboard) Top(_ context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	entries := make([]model.LeaderboardEntry, 0, len(m.scores))
	for id, score := range m.scores {
		entries = append(entries, model.LeaderboardEntry{UserID: id, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func openStore(t testing.TB) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func submission(userID, email string, wpm, accuracy, errPct, timing float64) ScoreSubmission {
	return ScoreSubmission{
		UserID: userID,
		Email:  email,
		TopScore: map[string]any{
			"wpm":      wpm,
			"accuracy": accuracy,
			"error":    errPct,
			"timing":   timing,
		},
	}
}

func validationMessage(t *testing.T, err error) string {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	return ve.Message
}

func TestValidateOrder(t *testing.T) {
	good := map[string]any{"wpm": 60.0, "accuracy": 95.0, "error": 5.0, "timing": 30.0}
	cases := []struct {
		name string
		path string
		in   ScoreSubmission
		want string
	}{
		{"missing user", "u1", ScoreSubmission{Email: "bad", TopScore: nil}, MsgInvalidUserID},
		{"blank user", "u1", ScoreSubmission{UserID: "   ", Email: "u1@x.com", TopScore: good}, MsgInvalidUserID},
		{"numeric user", "u1", ScoreSubmission{UserID: 42.0, Email: "u1@x.com", TopScore: good}, MsgInvalidUserID},
		{"bad email before score", "u1", ScoreSubmission{UserID: "u1", Email: "no-at-sign", TopScore: nil}, MsgInvalidEmail},
		{"email without tld", "u1", ScoreSubmission{UserID: "u1", Email: "a@b", TopScore: good}, MsgInvalidEmail},
		{"missing score", "u1", ScoreSubmission{UserID: "u1", Email: "u1@x.com"}, MsgInvalidScore},
		{"string wpm", "u1", ScoreSubmission{UserID: "u1", Email: "u1@x.com", TopScore: map[string]any{"wpm": "60", "accuracy": 95.0, "error": 5.0, "timing": 30.0}}, MsgInvalidScore},
		{"missing error", "u1", ScoreSubmission{UserID: "u1", Email: "u1@x.com", TopScore: map[string]any{"wpm": 60.0, "accuracy": 95.0, "timing": 30.0}}, MsgInvalidScore},
		{"zero timing", "u1", ScoreSubmission{UserID: "u1", Email: "u1@x.com", TopScore: map[string]any{"wpm": 60.0, "accuracy": 95.0, "error": 5.0, "timing": 0.0}}, MsgInvalidScore},
		{"score before mismatch", "u2", ScoreSubmission{UserID: "u1", Email: "u1@x.com", TopScore: 3.0}, MsgInvalidScore},
		{"mismatch", "u2", ScoreSubmission{UserID: "u1", Email: "u1@x.com", TopScore: good}, MsgUserMismatch},
	}
	for _, tc := range cases {
		_, err := Validate(tc.path, tc.in)
		if got := validationMessage(t, err); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}

	sub, err := Validate("u1", ScoreSubmission{UserID: "u1", Email: "  u1@x.com ", TopScore: good})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if sub.Email != "u1@x.com" || sub.WPM != 60 || sub.Timing != 30 {
		t.Fatalf("unexpected submission: %+v", sub)
	}
}

func TestUpsertCreatesThenReplacesHigherScore(t *testing.T) {
	st := openStore(t)
	lb := newMemLeaderboard()
	svc := NewUserService(st, lb)
	ctx := context.Background()

	res, err := svc.Upsert(ctx, "u1", submission("u1", "u1@x.com", 60, 95, 5, 30))
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !res.Created || res.Message() != MsgUserCreated {
		t.Fatalf("expected creation, got %+v", res)
	}
	if res.User.TopScore.Score != 10 {
		t.Fatalf("expected score 10, got %d", res.User.TopScore.Score)
	}

	res, err = svc.Upsert(ctx, "u1", submission("u1", "u1@x.com", 80, 90, 10, 20))
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if res.Created || res.Message() != MsgUserUpdated {
		t.Fatalf("expected update, got %+v", res)
	}
	stored, err := st.FindByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.TopScore.Score != 16 || stored.TopScore.WPM != 80 || stored.TopScore.Timing != 20 {
		t.Fatalf("expected replaced top score, got %+v", stored.TopScore)
	}
	if lb.scores["u1"] != 16 {
		t.Fatalf("leaderboard not updated: %v", lb.scores)
	}
}

func TestUpsertKeepsHigherStoredScore(t *testing.T) {
	st := openStore(t)
	svc := NewUserService(st, nil)
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, "u1", submission("u1", "u1@x.com", 80, 90, 10, 20)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	res, err := svc.Upsert(ctx, "u1", submission("u1", "u1@x.com", 60, 95, 5, 30))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if res.User.TopScore.Score != 16 || res.User.TopScore.WPM != 80 {
		t.Fatalf("lower score replaced stored one: %+v", res.User.TopScore)
	}
	// An equal score does not replace either.
	res, err = svc.Upsert(ctx, "u1", submission("u1", "u1@x.com", 72, 100, 0, 20))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if res.User.TopScore.WPM != 80 {
		t.Fatalf("equal score replaced stored one: %+v", res.User.TopScore)
	}
}

func TestUpsertRejectsOverflowingScore(t *testing.T) {
	st := openStore(t)
	svc := NewUserService(st, nil)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, "u1", submission("u1", "u1@x.com", 1e300, 100, 0, 1))
	if got := validationMessage(t, err); got != MsgInvalidScore {
		t.Fatalf("expected %q, got %q", MsgInvalidScore, got)
	}
	stored, err := st.FindByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored != nil {
		t.Fatalf("overflowing score persisted: %+v", stored)
	}

	res, err := svc.Upsert(ctx, "u1", submission("u1", "u1@x.com", 60, 95, 5, 30))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !res.Created || res.User.TopScore.Score != 10 {
		t.Fatalf("expected fresh user with score 10, got %+v", res)
	}
}

func TestUpsertMismatchHasNoSideEffect(t *testing.T) {
	st := openStore(t)
	svc := NewUserService(st, nil)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, "other", submission("u1", "u1@x.com", 60, 95, 5, 30))
	if got := validationMessage(t, err); got != MsgUserMismatch {
		t.Fatalf("expected mismatch, got %q", got)
	}
	users, err := st.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("mismatch persisted users: %+v", users)
	}
}

func TestUpsertEmailConflictMutatesNothing(t *testing.T) {
	st := openStore(t)
	svc := NewUserService(st, nil)
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, "u1", submission("u1", "u1@x.com", 30, 80, 20, 30)); err != nil {
		t.Fatalf("seed u1: %v", err)
	}
	if _, err := svc.Upsert(ctx, "u2", submission("u2", "u2@x.com", 40, 90, 10, 30)); err != nil {
		t.Fatalf("seed u2: %v", err)
	}

	_, err := svc.Upsert(ctx, "u1", submission("u1", "u2@x.com", 120, 100, 0, 10))
	if !errors.Is(err, ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}
	u1, err := st.FindByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if u1.Email != "u1@x.com" || u1.TopScore.WPM != 30 {
		t.Fatalf("conflicting submission mutated the record: %+v %+v", u1, u1.TopScore)
	}
}

func TestUpsertChangesEmail(t *testing.T) {
	st := openStore(t)
	svc := NewUserService(st, nil)
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, "u1", submission("u1", "old@x.com", 30, 80, 20, 30)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	res, err := svc.Upsert(ctx, "u1", submission("u1", "new@x.com", 10, 80, 20, 30))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if res.User.Email != "new@x.com" {
		t.Fatalf("email not updated: %+v", res.User)
	}
}

func TestUpsertNewUserWithTakenEmail(t *testing.T) {
	st := openStore(t)
	svc := NewUserService(st, nil)
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, "u1", submission("u1", "shared@x.com", 30, 80, 20, 30)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err := svc.Upsert(ctx, "u2", submission("u2", "shared@x.com", 30, 80, 20, 30))
	var dup *model.DuplicateKeyError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateKeyError, got %v", err)
	}
	if dup.Field != "email" {
		t.Fatalf("expected email field, got %q", dup.Field)
	}
}

func TestLeaderboardFallsBackToStore(t *testing.T) {
	st := openStore(t)
	lb := newMemLeaderboard()
	svc := NewUserService(st, lb)
	ctx := context.Background()

	for _, s := range []ScoreSubmission{
		submission("a", "a@x.com", 60, 95, 5, 30),
		submission("b", "b@x.com", 80, 90, 10, 20),
	} {
		if _, err := svc.Upsert(ctx, s.UserID.(string), s); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	cached, err := svc.Leaderboard(ctx, 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(cached) != 2 || cached[0].UserID != "b" || cached[0].Rank != 1 {
		t.Fatalf("unexpected cached leaderboard: %+v", cached)
	}

	lb.err = errors.New("redis down")
	fromStore, err := svc.Leaderboard(ctx, 1)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(fromStore) != 1 || fromStore[0].UserID != "b" || fromStore[0].Score != 16 {
		t.Fatalf("unexpected store leaderboard: %+v", fromStore)
	}
}

func TestWarmLeaderboard(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	seed := NewUserService(st, nil)
	if _, err := seed.Upsert(ctx, "a", submission("a", "a@x.com", 60, 95, 5, 30)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	lb := newMemLeaderboard()
	n, err := NewUserService(st, lb).WarmLeaderboard(ctx)
	if err != nil {
		t.Fatalf("warm: %v", err)
	}
	if n != 1 || lb.scores["a"] != 10 {
		t.Fatalf("unexpected warm result %d %v", n, lb.scores)
	}
}

func TestStoredScoreNeverDecreases(t *testing.T) {
	st := openStore(t)
	svc := NewUserService(st, nil)
	ctx := context.Background()
	best := -1

	rapid.Check(t, func(rt *rapid.T) {
		wpm := rapid.Float64Range(0, 200).Draw(rt, "wpm")
		acc := rapid.Float64Range(0, 100).Draw(rt, "accuracy")
		timing := rapid.Float64Range(1, 300).Draw(rt, "timing")

		res, err := svc.Upsert(ctx, "u1", submission("u1", "u1@x.com", wpm, acc, 100-acc, timing))
		if err != nil {
			rt.Fatalf("upsert: %v", err)
		}
		got := res.User.TopScore.Score
		if got < best {
			rt.Fatalf("stored score decreased from %d to %d", best, got)
		}
		best = got
	})
}
