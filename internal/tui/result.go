package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/session"
)

type resultCard struct {
	label string
	value string
}

// characterCounts returns how many typed characters hit and missed the target.
func characterCounts(h model.History) (correct, incorrect int) {
	target := []rune(h.WordHistory)
	for i, r := range []rune(h.TypedHistory) {
		if i < len(target) && r == target[i] {
			correct++
		} else {
			incorrect++
		}
	}
	return correct, incorrect
}

func resultCards(done *session.Completion) []resultCard {
	res := done.Results
	correct, incorrect := characterCounts(done.History)
	elapsed := done.EndedAt.Sub(done.StartedAt).Round(10 * time.Millisecond)
	return []resultCard{
		{"wpm/cpm", fmt.Sprintf("%.0f / %.0f", res.WPM, res.CPM)},
		{"acc.", fmt.Sprintf("%.0f%%", math.Round(res.Accuracy))},
		{"character", fmt.Sprintf("%d / %d", correct, incorrect)},
		{"err.", fmt.Sprintf("%.0f%%", math.Round(res.Error))},
		{"time", fmt.Sprintf("%gs", elapsed.Seconds())},
		{"total", fmt.Sprintf("%d", len([]rune(done.History.TypedHistory)))},
	}
}

func (m *Model) renderResult() string {
	done := m.result
	cards := resultCards(done)
	columns := make([]string, 0, len(cards))
	for _, c := range cards {
		columns = append(columns, lipgloss.JoinVertical(lipgloss.Left,
			labelStyle.Render(c.label),
			valueStyle.Render(c.value),
		))
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, interleave(columns, "   ")...)

	width := m.contentWidth()
	history := wrapCells(styleHistory(done.History.WordHistory, done.History.TypedHistory), width)

	lines := []string{header, ""}
	if done.Reason == session.TimerExpired {
		lines = append(lines, labelStyle.Render("time is up"))
	}
	lines = append(lines, history)
	return strings.Join(lines, "\n")
}

func interleave(items []string, sep string) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items)*2-1)
	for i, item := range items {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, item)
	}
	return out
}
