// Package model defines shared data structures.
package model

import "time"

// Config defines practice settings.
type Config struct {
	Lang     string
	Words    int
	Duration time.Duration
	CapsPct  float64
	PunctPct float64
	PunctSet string
}

// Identity names the account a result is submitted for.
type Identity struct {
	UserID string
	Email  string
	Token  string
}

// TypingState is the phase of a typing session.
type TypingState string

// Typing states. A session moves idle -> start -> typing and returns to idle on restart.
const (
	StateIdle   TypingState = "idle"
	StateStart  TypingState = "start"
	StateTyping TypingState = "typing"
)

// Results holds the metrics derived from a completed session.
// Timing is the elapsed session time in whole seconds.
type Results struct {
	Accuracy float64 `json:"accuracy"`
	WPM      float64 `json:"wpm"`
	CPM      float64 `json:"cpm"`
	Error    float64 `json:"error"`
	Timing   float64 `json:"timing"`
}

// IsZero reports whether no metric was produced.
func (r Results) IsZero() bool {
	return r.Accuracy == 0 && r.WPM == 0 && r.CPM == 0 && r.Error == 0
}

// History is the target and typed text of a completed session.
type History struct {
	WordHistory  string
	TypedHistory string
}

// TopScore is the best result stored for a user.
type TopScore struct {
	WPM      float64 `json:"wpm" bson:"wpm"`
	Timing   float64 `json:"timing" bson:"timing"`
	Accuracy float64 `json:"accuracy" bson:"accuracy"`
	Error    float64 `json:"error" bson:"error"`
	Score    int     `json:"score" bson:"score"`
}

// UserRecord is a persisted user with their best score.
type UserRecord struct {
	UserID    string    `json:"userId" bson:"userId"`
	Email     string    `json:"email" bson:"email"`
	TopScore  *TopScore `json:"topScore,omitempty" bson:"topScore,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	UserID string `json:"userId"`
	Score  int    `json:"score"`
	Rank   int    `json:"rank"`
}

// SessionRecord is a completed practice session kept in local history.
type SessionRecord struct {
	ID        int64
	StartedAt time.Time
	EndedAt   time.Time
	Lang      string
	Results   Results
	Score     int
	Submitted bool
}

// HistoryConfig defines filters for local history output.
type HistoryConfig struct {
	Lang  string
	Since *time.Time
	Last  int
}
