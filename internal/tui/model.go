// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/session"
	statsPkg "github.com/verte-zerg/speedtype/internal/stats"
	"github.com/verte-zerg/speedtype/internal/store"
	"github.com/verte-zerg/speedtype/internal/submit"
)

const (
	tickInterval  = time.Second
	submitTimeout = 15 * time.Second
)

// Submitter posts results for an identity.
type Submitter interface {
	Submit(ctx context.Context, id model.Identity, res model.Results) (*submit.UpdateResponse, error)
}

// Options configures a Model. Store and Submitter are optional.
type Options struct {
	Config    model.Config
	Identity  model.Identity
	Source    session.ContentSource
	Store     *store.Store
	Submitter Submitter
	Now       func() time.Time
}

type tickMsg time.Time

type submittedMsg struct {
	sessionID int64
	resp      *submit.UpdateResponse
	err       error
}

// Model implements the Bubble Tea typing UI.
type Model struct {
	config    model.Config
	identity  model.Identity
	ctrl      *session.Controller
	store     *store.Store
	submitter Submitter
	now       func() time.Time

	keys keyMap
	help help.Model

	width  int
	height int

	ticking bool
	result  *session.Completion
	status  string

	hasLast   bool
	lastWPM   float64
	lastAcc   float64
	bestScore int
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
)

// NewModel constructs a typing TUI model.
func NewModel(opts Options) *Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	m := &Model{
		config:    opts.Config,
		identity:  opts.Identity,
		ctrl:      session.New(opts.Source, opts.Config.Duration),
		store:     opts.Store,
		submitter: opts.Submitter,
		now:       now,
		keys:      defaultKeyMap(),
		help:      help.New(),
	}
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tickMsg:
		return m, m.handleTick(time.Time(msg))
	case submittedMsg:
		m.handleSubmitted(msg)
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		return tea.Quit
	}
	if m.result != nil {
		if key.Matches(msg, m.keys.Dismiss) {
			m.result = nil
		}
		return nil
	}
	switch {
	case key.Matches(msg, m.keys.Restart):
		m.ctrl.RestartTest()
		return nil
	case key.Matches(msg, m.keys.Timer):
		m.config.Duration = nextTimer(m.ctrl.Duration())
		m.ctrl.SetDuration(m.config.Duration)
		return nil
	case msg.Type == tea.KeyBackspace || msg.Type == tea.KeyDelete:
		m.ctrl.Backspace()
		return nil
	case msg.Type == tea.KeySpace:
		return m.handleRunes([]rune{' '})
	case msg.Type == tea.KeyRunes:
		return m.handleRunes(msg.Runes)
	}
	return nil
}

func (m *Model) handleRunes(runes []rune) tea.Cmd {
	var cmds []tea.Cmd
	for _, r := range runes {
		done := m.ctrl.Type(r, m.now())
		if done != nil {
			cmds = append(cmds, m.finishSession(done))
			break
		}
	}
	if m.ctrl.State() == model.StateTyping && !m.ticking {
		m.ticking = true
		cmds = append(cmds, tick())
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleTick(now time.Time) tea.Cmd {
	if done := m.ctrl.Tick(now); done != nil {
		m.ticking = false
		return m.finishSession(done)
	}
	if m.ctrl.State() != model.StateTyping {
		m.ticking = false
		return nil
	}
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// finishSession records a completed session, shows its results and starts
// the asynchronous submission. The controller has already restarted.
func (m *Model) finishSession(done *session.Completion) tea.Cmd {
	m.result = done
	m.status = ""

	res := done.Results
	score, err := statsPkg.Score(res.WPM, res.Accuracy, res.Timing)
	if err != nil {
		score = 0
	}
	m.lastWPM = res.WPM
	m.lastAcc = res.Accuracy
	m.hasLast = true
	if score > m.bestScore {
		m.bestScore = score
	}

	var id int64
	if m.store != nil {
		id, err = m.store.InsertSession(context.Background(), model.SessionRecord{
			StartedAt: done.StartedAt,
			EndedAt:   done.EndedAt,
			Lang:      m.config.Lang,
			Results:   res,
			Score:     score,
		})
		if err != nil {
			logErrf("failed to save session: %v\n", err)
		}
	}
	return m.submitCmd(id, res)
}

func (m *Model) submitCmd(sessionID int64, res model.Results) tea.Cmd {
	if m.submitter == nil || m.identity.UserID == "" {
		return nil
	}
	submitter := m.submitter
	identity := m.identity
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		resp, err := submitter.Submit(ctx, identity, res)
		return submittedMsg{sessionID: sessionID, resp: resp, err: err}
	}
}

func (m *Model) handleSubmitted(msg submittedMsg) {
	if msg.err != nil {
		if errors.Is(msg.err, submit.ErrEmptyResults) {
			return
		}
		logErrf("failed to submit results: %v\n", msg.err)
		m.status = "submit failed"
		return
	}
	if msg.resp != nil {
		m.status = msg.resp.Message
	}
	if m.store != nil && msg.sessionID > 0 {
		if err := m.store.MarkSubmitted(context.Background(), msg.sessionID); err != nil {
			logErrf("failed to mark session submitted: %v\n", err)
		}
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	var helpKeys help.KeyMap = m.keys
	if m.result != nil {
		content = m.renderResult()
		helpKeys = resultKeys{m.keys}
	} else {
		content = m.renderText()
	}
	if content == "" {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := m.renderFooter() + "  " + m.help.View(helpKeys)
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 0
	}
	w := int(float64(m.width) * 0.70)
	if w < 1 {
		w = 1
	}
	return w
}

func (m *Model) renderText() string {
	target := m.ctrl.WordRunes()
	if len(target) == 0 {
		return ""
	}
	cells := styleTarget(target, m.ctrl.TypedRunes(), m.ctrl.Cursor(), m.ctrl.CheckCharacter)
	width := m.contentWidth()
	if width == 0 {
		return joinCells(cells)
	}
	return lipgloss.NewStyle().Width(width).Render(wrapCells(cells, width))
}

func (m *Model) renderFooter() string {
	remaining := m.ctrl.Remaining().Round(time.Second)
	segments := []string{fmt.Sprintf("%s %s", m.config.Lang, formatClock(remaining))}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.0f WPM · %.1f%%", m.lastWPM, m.lastAcc))
	}
	if m.bestScore > 0 {
		segments = append(segments, fmt.Sprintf("Best score %d", m.bestScore))
	}
	if m.status != "" {
		segments = append(segments, m.status)
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func (m *Model) loadFooterStats() {
	if m.store == nil {
		return
	}
	sessions, err := m.store.ListSessions(context.Background(), model.HistoryConfig{Lang: m.config.Lang})
	if err != nil {
		logErrf("failed to load session history: %v\n", err)
		return
	}
	if len(sessions) == 0 {
		return
	}
	last := sessions[len(sessions)-1]
	m.lastWPM = last.Results.WPM
	m.lastAcc = last.Results.Accuracy
	m.hasLast = true
	for _, s := range sessions {
		if s.Score > m.bestScore {
			m.bestScore = s.Score
		}
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
