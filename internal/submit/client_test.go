package submit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/verte-zerg/speedtype/internal/model"
)

func TestSubmitPostsRawComponents(t *testing.T) {
	var got UpdateRequest
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "User created successfully",
			"user":    map[string]any{"userId": "u1", "email": "u1@x.com", "topScore": map[string]any{"score": 10}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL + "/api/")
	res := model.Results{WPM: 60, CPM: 300, Accuracy: 95, Error: 5, Timing: 30}
	resp, err := c.Submit(context.Background(), model.Identity{UserID: "u1", Email: "u1@x.com", Token: "tok"}, res)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if path != "/api/userData/update/u1" {
		t.Fatalf("unexpected path %q", path)
	}
	if auth != "Bearer tok" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if got.UserID != "u1" || got.Email != "u1@x.com" {
		t.Fatalf("unexpected identity in body: %+v", got)
	}
	if got.TopScore.WPM != 60 || got.TopScore.Accuracy != 95 || got.TopScore.Error != 5 || got.TopScore.Timing != 30 {
		t.Fatalf("unexpected top score: %+v", got.TopScore)
	}
	if got.TopScore.Score != 0 {
		t.Fatalf("client must not send a score, got %d", got.TopScore.Score)
	}
	if resp.Message != "User created successfully" || resp.User.TopScore == nil || resp.User.TopScore.Score != 10 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSubmitSkipsEmptyResults(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := New(srv.URL).Submit(context.Background(), model.Identity{UserID: "u1"}, model.Results{Timing: 10})
	if !errors.Is(err, ErrEmptyResults) {
		t.Fatalf("expected ErrEmptyResults, got %v", err)
	}
	if called {
		t.Fatalf("empty results must not be posted")
	}
}

func TestSubmitRequiresIdentity(t *testing.T) {
	_, err := New("http://127.0.0.1:0").Submit(context.Background(), model.Identity{UserID: "  "}, model.Results{WPM: 1, Accuracy: 50, Error: 50, Timing: 1})
	if !errors.Is(err, ErrNoIdentity) {
		t.Fatalf("expected ErrNoIdentity, got %v", err)
	}
}

func TestSubmitReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"User ID mismatch"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Submit(context.Background(), model.Identity{UserID: "u1", Email: "u1@x.com"}, model.Results{WPM: 10, Accuracy: 90, Error: 10, Timing: 5})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusBadRequest || se.Message != "User ID mismatch" {
		t.Fatalf("unexpected status error: %+v", se)
	}
}

func TestListUsersAndLeaderboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/allUsers":
			_, _ = w.Write([]byte(`[{"userId":"a","email":"a@x.com"},{"userId":"b","email":"b@x.com","topScore":{"score":7}}]`))
		case "/leaderboard":
			if r.URL.Query().Get("limit") != "5" {
				t.Errorf("unexpected limit %q", r.URL.Query().Get("limit"))
			}
			_, _ = w.Write([]byte(`[{"userId":"b","score":7,"rank":1}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	users, err := c.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 || users[0].TopScore != nil || users[1].TopScore.Score != 7 {
		t.Fatalf("unexpected users: %+v", users)
	}
	entries, err := c.Leaderboard(context.Background(), 5)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 1 || entries[0].UserID != "b" || entries[0].Rank != 1 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}
