// Package session implements the typing-session state machine.
//
// A Controller is driven by three kinds of events: keystrokes (Type, Backspace),
// countdown ticks (Tick) and restarts. A session completes on exactly one of two
// triggers, timer expiry or the typed text reaching the target length. On
// completion the controller derives Results, snapshots History and restarts
// itself; the caller receives the Completion and decides how to display or
// submit it.
package session

import (
	"time"

	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/stats"
)

// ContentSource supplies the target text for a new session.
type ContentSource interface {
	Next() string
}

// Reason tells which trigger completed a session.
type Reason int

// Completion triggers.
const (
	TimerExpired Reason = iota
	TextCompleted
)

func (r Reason) String() string {
	if r == TimerExpired {
		return "timer expired"
	}
	return "text completed"
}

// Completion describes a finished session.
type Completion struct {
	Results   model.Results
	History   model.History
	Reason    Reason
	StartedAt time.Time
	EndedAt   time.Time
}

// Controller owns the state of the current typing session. It is not safe for
// concurrent use; the UI event loop is its only caller.
type Controller struct {
	source   ContentSource
	duration time.Duration

	word      []rune
	typed     []rune
	state     model.TypingState
	startedAt time.Time
	remaining time.Duration

	totalWord  string
	totalTyped string
}

// New returns a Controller with fresh content and an idle session.
func New(source ContentSource, duration time.Duration) *Controller {
	c := &Controller{source: source, duration: duration}
	c.RestartTest()
	return c
}

// RestartTest resets the countdown, selects new content and clears the typed buffer.
func (c *Controller) RestartTest() {
	c.remaining = c.duration
	c.word = []rune(c.source.Next())
	c.typed = c.typed[:0]
	c.state = model.StateIdle
	c.startedAt = time.Time{}
	c.totalWord = string(c.word)
	c.totalTyped = ""
}

// SetDuration changes the countdown length and restarts the session.
func (c *Controller) SetDuration(d time.Duration) {
	c.duration = d
	c.RestartTest()
}

// CheckCharacter reports whether the typed character at index matches the target.
// Indexes outside either buffer report false.
func (c *Controller) CheckCharacter(index int) bool {
	if index < 0 || index >= len(c.typed) || index >= len(c.word) {
		return false
	}
	return c.typed[index] == c.word[index]
}

// Type records a keystroke at now. The first keystroke of a session starts the
// countdown. A non-nil Completion means the session ended and was restarted.
func (c *Controller) Type(r rune, now time.Time) *Completion {
	if len(c.word) == 0 {
		return nil
	}
	if c.state == model.StateIdle {
		c.state = model.StateStart
	}
	if c.state == model.StateStart {
		c.startCountdown(now)
	}
	if done := c.checkExpiry(now); done != nil {
		return done
	}
	c.typed = append(c.typed, r)
	c.totalTyped = string(c.typed)
	if len(c.typed) >= len(c.word) {
		return c.complete(TextCompleted, now)
	}
	return nil
}

// Backspace removes the last typed character of a running session.
func (c *Controller) Backspace() {
	if c.state != model.StateTyping || len(c.typed) == 0 {
		return
	}
	c.typed = c.typed[:len(c.typed)-1]
	c.totalTyped = string(c.typed)
}

// Tick advances the countdown to now. Ticks outside a running session are ignored.
func (c *Controller) Tick(now time.Time) *Completion {
	if c.state != model.StateTyping {
		return nil
	}
	return c.checkExpiry(now)
}

func (c *Controller) startCountdown(now time.Time) {
	c.startedAt = now
	c.remaining = c.duration
	c.state = model.StateTyping
}

func (c *Controller) checkExpiry(now time.Time) *Completion {
	elapsed := now.Sub(c.startedAt)
	if elapsed < c.duration {
		c.remaining = c.duration - elapsed
		return nil
	}
	c.remaining = 0
	return c.complete(TimerExpired, c.startedAt.Add(c.duration))
}

func (c *Controller) complete(reason Reason, endedAt time.Time) *Completion {
	elapsed := endedAt.Sub(c.startedAt)
	accuracy := stats.CalculateAccuracy(c.totalWord, c.totalTyped)
	wpm, cpm := stats.CalculateWPM(c.totalTyped, accuracy, elapsed)
	done := &Completion{
		Results: model.Results{
			Accuracy: accuracy,
			WPM:      wpm,
			CPM:      cpm,
			Error:    stats.CalculateErrorPercentage(accuracy),
			Timing:   stats.TimingSeconds(elapsed),
		},
		History: model.History{
			WordHistory:  c.totalWord,
			TypedHistory: c.totalTyped,
		},
		Reason:    reason,
		StartedAt: c.startedAt,
		EndedAt:   endedAt,
	}
	c.RestartTest()
	return done
}

// Word returns the target text of the current session.
func (c *Controller) Word() string { return string(c.word) }

// Typed returns the typed characters of the current session.
func (c *Controller) Typed() string { return string(c.typed) }

// WordRunes returns the target text as runes. The slice must not be modified.
func (c *Controller) WordRunes() []rune { return c.word }

// TypedRunes returns the typed characters as runes. The slice must not be modified.
func (c *Controller) TypedRunes() []rune { return c.typed }

// Cursor returns the position of the next character to type.
func (c *Controller) Cursor() int { return len(c.typed) }

// State returns the current typing state.
func (c *Controller) State() model.TypingState { return c.state }

// Remaining returns the countdown time left.
func (c *Controller) Remaining() time.Duration { return c.remaining }

// Duration returns the configured countdown length.
func (c *Controller) Duration() time.Duration { return c.duration }
