// Package submit posts completed session results to the score server.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/speedtype/internal/model"
)

const defaultTimeout = 10 * time.Second

var (
	// ErrEmptyResults is returned for a session that produced no metrics.
	ErrEmptyResults = errors.New("results are empty")
	// ErrNoIdentity is returned when no user id is configured.
	ErrNoIdentity = errors.New("user id is not configured")
)

// StatusError is a non-2xx reply from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// UpdateRequest is the body of a score submission.
type UpdateRequest struct {
	UserID   string         `json:"userId"`
	Email    string         `json:"email"`
	TopScore model.TopScore `json:"topScore"`
}

// UpdateResponse is the server reply to a score submission.
type UpdateResponse struct {
	Message string           `json:"message"`
	User    model.UserRecord `json:"user"`
}

// Client talks to the score server rooted at BaseURL, e.g. http://localhost:3000/api.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a client with a bounded request timeout.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Submit posts results for id. The server recomputes the score, so only the
// raw components are sent.
func (c *Client) Submit(ctx context.Context, id model.Identity, res model.Results) (*UpdateResponse, error) {
	if res.IsZero() {
		return nil, ErrEmptyResults
	}
	if strings.TrimSpace(id.UserID) == "" {
		return nil, ErrNoIdentity
	}
	body := UpdateRequest{
		UserID: id.UserID,
		Email:  id.Email,
		TopScore: model.TopScore{
			WPM:      res.WPM,
			Timing:   res.Timing,
			Accuracy: res.Accuracy,
			Error:    res.Error,
		},
	}
	var out UpdateResponse
	path := "/userData/update/" + url.PathEscape(id.UserID)
	if err := c.do(ctx, http.MethodPost, path, id.Token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers returns every stored user record.
func (c *Client) ListUsers(ctx context.Context) ([]model.UserRecord, error) {
	var users []model.UserRecord
	if err := c.do(ctx, http.MethodGet, "/allUsers", "", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Leaderboard returns the top limit users by score.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	path := "/leaderboard"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var entries []model.LeaderboardEntry
	if err := c.do(ctx, http.MethodGet, path, "", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			_ = cerr
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg struct {
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &msg) != nil || msg.Message == "" {
			msg.Message = strings.TrimSpace(string(raw))
		}
		return &StatusError{Code: resp.StatusCode, Message: msg.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
