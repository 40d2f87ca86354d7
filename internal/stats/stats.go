package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/verte-zerg/speedtype/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints a summary of local sessions.
func RenderSummary(w io.Writer, sessions []model.SessionRecord) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	var totalWPM, totalCPM, totalAcc float64
	bestWPM := 0.0
	bestScore := 0
	for _, s := range sessions {
		totalWPM += s.Results.WPM
		totalCPM += s.Results.CPM
		totalAcc += s.Results.Accuracy
		bestWPM = math.Max(bestWPM, s.Results.WPM)
		bestScore = max(bestScore, s.Score)
	}
	count := float64(len(sessions))
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", len(sessions)),
		fmt.Sprintf("Avg WPM: %.2f", totalWPM/count),
		fmt.Sprintf("Best WPM: %.0f", bestWPM),
		fmt.Sprintf("Avg CPM: %.2f", totalCPM/count),
		fmt.Sprintf("Avg Accuracy: %.2f%%", totalAcc/count),
		fmt.Sprintf("Best Score: %d", bestScore),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderTrend prints WPM and score sparklines smoothed over window sessions.
// width <= 0 sizes the lines to the terminal.
func RenderTrend(w io.Writer, sessions []model.SessionRecord, window, width int) error {
	if len(sessions) == 0 {
		return nil
	}
	if width <= 0 {
		width = terminalWidth() - 8
	}
	wpms := make([]float64, len(sessions))
	scores := make([]float64, len(sessions))
	for i, s := range sessions {
		wpms[i] = s.Results.WPM
		scores[i] = float64(s.Score)
	}
	wpms = tail(MovingAverage(wpms, window), width)
	scores = tail(MovingAverage(scores, window), width)
	if _, err := fmt.Fprintf(w, "WPM   %s\n", Sparkline(wpms)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Score %s\n", Sparkline(scores))
	return err
}

// RenderCurves plots the smoothed WPM and score of sessions. totalWidth <= 0
// fits the terminal.
func RenderCurves(w io.Writer, sessions []model.SessionRecord, window, totalWidth, height int) error {
	if len(sessions) == 0 {
		return nil
	}
	wpms := make([]float64, len(sessions))
	scores := make([]float64, len(sessions))
	for i, s := range sessions {
		wpms[i] = s.Results.WPM
		scores[i] = float64(s.Score)
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeries(w, "Progress", []Series{
		{Name: "WPM", Values: MovingAverage(wpms, window)},
		{Name: "Score", Values: MovingAverage(scores, window)},
	}, width, height)
}

// RenderUsers prints stored user records as a table ordered as given.
func RenderUsers(w io.Writer, users []model.UserRecord) error {
	if len(users) == 0 {
		_, err := fmt.Fprintln(w, "No users found.")
		return err
	}
	headers := []string{"User", "Email", "Score", "WPM", "Accuracy", "Time (s)"}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		row := []string{u.UserID, u.Email, "-", "-", "-", "-"}
		if u.TopScore != nil {
			row[2] = fmt.Sprintf("%d", u.TopScore.Score)
			row[3] = fmt.Sprintf("%.0f", u.TopScore.WPM)
			row[4] = fmt.Sprintf("%.2f%%", u.TopScore.Accuracy)
			row[5] = fmt.Sprintf("%.0f", u.TopScore.Timing)
		}
		rows = append(rows, row)
	}
	return writeTable(w, headers, rows, map[int]bool{2: true, 3: true, 4: true, 5: true})
}

// RenderLeaderboard prints ranked entries.
func RenderLeaderboard(w io.Writer, entries []model.LeaderboardEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "Leaderboard is empty.")
		return err
	}
	headers := []string{"#", "User", "Score"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{fmt.Sprintf("%d", e.Rank), e.UserID, fmt.Sprintf("%d", e.Score)})
	}
	return writeTable(w, headers, rows, map[int]bool{0: true, 2: true})
}

func tail(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
