package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/verte-zerg/speedtype/internal/model"
)

func TestPlotSeries(t *testing.T) {
	var buf bytes.Buffer
	err := PlotSeries(&buf, "Test Plot", []Series{
		{Name: "A", Values: []float64{1, 2, 3, 2, 1}},
		{Name: "B", Values: []float64{1, 1, 2, 3, 4}},
		{Name: "empty"},
	}, 12, 4)
	if err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Test Plot", "A: min=1.00 max=3.00", "B: min=1.00 max=4.00", "Legend: A (solid)  B (dashed)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("plot missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "empty") || strings.Contains(out, "\x1b[") {
		t.Fatalf("unexpected series or color codes:\n%s", out)
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	// title + 2 ranges + 4 rows + legend
	if len(lines) != 8 {
		t.Fatalf("expected 8 lines, got %d:\n%s", len(lines), out)
	}
	for _, row := range lines[3:7] {
		if got := utf8.RuneCountInString(row); got != len(axisMax)+utf8.RuneCountInString(axisSeparator)+12 {
			t.Fatalf("row %q has %d runes", row, got)
		}
	}
	if !strings.HasPrefix(lines[3], axisMax) || !strings.HasPrefix(lines[6], axisMin) {
		t.Fatalf("unexpected axis labels:\n%s", out)
	}
}

func TestPlotSeriesEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotSeries(&buf, "none", nil, 10, 4); err != nil {
		t.Fatalf("plot: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestPlotSeriesWithColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	var buf bytes.Buffer
	if err := PlotSeriesWithColor(&buf, "", []Series{{Name: "A", Values: []float64{1, 2}}}, 10, 2); err != nil {
		t.Fatalf("plot: %v", err)
	}
	if !strings.Contains(buf.String(), colorReset) {
		t.Fatalf("expected color codes")
	}
}

func TestPlotWidthFor(t *testing.T) {
	axisWidth := utf8.RuneCountInString(axisMax) + utf8.RuneCountInString(axisSeparator)
	if got := PlotWidthFor(80); got != 80-axisWidth {
		t.Fatalf("expected width %d, got %d", 80-axisWidth, got)
	}
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected min width %d, got %d", minPlotWidth, got)
	}
}

func TestResample(t *testing.T) {
	if got := resample([]float64{1, 3, 5, 7}, 2); got[0] != 2 || got[1] != 6 {
		t.Fatalf("downsample: %v", got)
	}
	if got := resample([]float64{0, 10}, 3); got[0] != 0 || got[1] != 5 || got[2] != 10 {
		t.Fatalf("upsample: %v", got)
	}
	if got := resample([]float64{4}, 3); got[0] != 4 || got[2] != 4 {
		t.Fatalf("single value: %v", got)
	}
}

func TestRenderCurves(t *testing.T) {
	start := time.Unix(0, 0)
	sessions := make([]model.SessionRecord, 0, 5)
	for i := 0; i < 5; i++ {
		sessions = append(sessions, model.SessionRecord{
			EndedAt: start.Add(time.Duration(i) * time.Minute),
			Results: model.Results{WPM: float64(30 + 5*i)},
			Score:   4 + i,
		})
	}
	var buf bytes.Buffer
	if err := RenderCurves(&buf, sessions, 1, 40, 5); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Progress", "WPM: min=30.00 max=50.00", "Score: min=4.00 max=8.00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("curves missing %q:\n%s", want, out)
		}
	}
}

func TestReportRenderPlot(t *testing.T) {
	report := Report{Sessions: []model.SessionRecord{
		{Results: model.Results{WPM: 40, Accuracy: 90}, Score: 6},
		{Results: model.Results{WPM: 50, Accuracy: 95}, Score: 9},
	}}
	var buf bytes.Buffer
	if err := report.RenderPlot(&buf, 1); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Sessions: 2") || !strings.Contains(out, "Progress") || strings.Contains(out, "WPM   ") {
		t.Fatalf("unexpected plot report:\n%s", out)
	}
}
