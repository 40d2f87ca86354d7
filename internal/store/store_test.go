package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/speedtype/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "speedtype.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestInsertAndListSessions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Minute).UTC()
		lang := "python"
		if i == 1 {
			lang = "c"
		}
		id, err := st.InsertSession(ctx, model.SessionRecord{
			StartedAt: start,
			EndedAt:   start.Add(30 * time.Second),
			Lang:      lang,
			Results:   model.Results{Accuracy: 95, WPM: 60, CPM: 320, Error: 5, Timing: 30},
			Score:     10 + i,
		})
		if err != nil {
			t.Fatalf("insert session: %v", err)
		}
		ids = append(ids, id)
	}
	if err := st.MarkSubmitted(ctx, ids[2]); err != nil {
		t.Fatalf("mark submitted: %v", err)
	}

	sessions, err := st.ListSessions(ctx, model.HistoryConfig{Lang: "python"})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 python sessions, got %d", len(sessions))
	}
	if sessions[0].ID != ids[0] || sessions[1].ID != ids[2] {
		t.Fatalf("unexpected order: %+v", sessions)
	}
	if sessions[0].Submitted || !sessions[1].Submitted {
		t.Fatalf("unexpected submitted flags: %+v", sessions)
	}
	if sessions[1].Score != 12 || sessions[1].Results.WPM != 60 {
		t.Fatalf("unexpected session values: %+v", sessions[1])
	}
}

func TestMarkSubmittedUnknownSession(t *testing.T) {
	st := openTestStore(t)
	if err := st.MarkSubmitted(context.Background(), 42); err == nil {
		t.Fatalf("expected error for unknown session")
	}
}

func TestUserCreateFindUpdate(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	missing, err := st.FindByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("find missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing user, got %+v", missing)
	}

	user := &model.UserRecord{
		UserID:   "u1",
		Email:    "u1@x.com",
		TopScore: &model.TopScore{WPM: 60, Timing: 30, Accuracy: 95, Error: 5, Score: 10},
	}
	if err := st.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := st.FindByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil || got.TopScore == nil || got.TopScore.Score != 10 || got.Email != "u1@x.com" {
		t.Fatalf("unexpected user: %+v", got)
	}

	got.Email = "new@x.com"
	got.TopScore = &model.TopScore{WPM: 80, Timing: 20, Accuracy: 90, Error: 10, Score: 16}
	if err := st.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	again, err := st.FindByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("find after update: %v", err)
	}
	if again.Email != "new@x.com" || again.TopScore.Score != 16 {
		t.Fatalf("update not persisted: %+v", again)
	}
}

func TestUserWithoutTopScore(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if err := st.Create(ctx, &model.UserRecord{UserID: "u1", Email: "u1@x.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := st.FindByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.TopScore != nil {
		t.Fatalf("expected nil top score, got %+v", got.TopScore)
	}
	top, err := st.Top(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 0 {
		t.Fatalf("expected users without scores to be excluded, got %+v", top)
	}
}

func TestFindByEmailExcludesOwner(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if err := st.Create(ctx, &model.UserRecord{UserID: "u1", Email: "shared@x.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	self, err := st.FindByEmail(ctx, "shared@x.com", "u1")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if self != nil {
		t.Fatalf("expected owner to be excluded")
	}
	other, err := st.FindByEmail(ctx, "shared@x.com", "u2")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if other == nil || other.UserID != "u1" {
		t.Fatalf("expected u1 to own email, got %+v", other)
	}
}

func TestDuplicateEmailReturnsDuplicateKeyError(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if err := st.Create(ctx, &model.UserRecord{UserID: "u1", Email: "dup@x.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := st.Create(ctx, &model.UserRecord{UserID: "u2", Email: "dup@x.com"})
	var dup *model.DuplicateKeyError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateKeyError, got %v", err)
	}
	if dup.Field != "email" {
		t.Fatalf("expected email field, got %q", dup.Field)
	}

	err = st.Create(ctx, &model.UserRecord{UserID: "u1", Email: "other@x.com"})
	if !errors.As(err, &dup) || dup.Field != "userId" {
		t.Fatalf("expected userId duplicate, got %v", err)
	}
}

func TestListAndTopUsers(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	for i, score := range []int{5, 20, 12} {
		user := &model.UserRecord{
			UserID:   string(rune('a' + i)),
			Email:    string(rune('a'+i)) + "@x.com",
			TopScore: &model.TopScore{Score: score},
		}
		if err := st.Create(ctx, user); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	all, err := st.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].UserID != "a" {
		t.Fatalf("unexpected list: %+v", all)
	}
	top, err := st.Top(ctx, 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].UserID != "b" || top[1].UserID != "c" {
		t.Fatalf("unexpected top: %+v", top)
	}
}
