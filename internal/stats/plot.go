package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// Series is a named sequence of values drawn as one line of a plot.
type Series struct {
	Name   string
	Values []float64
}

const (
	defaultPlotHeight = 10
	minPlotWidth      = 10
	axisMax           = "max"
	axisMid           = "mid"
	axisMin           = "min"
	axisSeparator     = " │ "
	colorReset        = "\x1b[0m"

	// Each braille cell holds a 2x4 dot grid.
	dotsPerCellX = 2
	dotsPerCellY = 4
)

type dash struct {
	name   string
	period int
	on     int
}

var dashes = []dash{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
}

var palette = []string{"\x1b[36m", "\x1b[33m", "\x1b[35m", "\x1b[32m"}

func (d dash) visible(x int) bool {
	if d.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%d.period < d.on
}

// valueRange is the range a series is scaled into.
type valueRange struct {
	lo float64
	hi float64
}

// PlotSeries draws series as a braille line chart width cells wide and
// height rows tall. Each series is scaled to its own range. width <= 0 fits
// the terminal; height <= 0 uses the default.
func PlotSeries(w io.Writer, title string, series []Series, width, height int) error {
	return plot(w, title, series, width, height, shouldUseColor(w, false))
}

// PlotSeriesWithColor is PlotSeries with ANSI colors forced on.
func PlotSeriesWithColor(w io.Writer, title string, series []Series, width, height int) error {
	return plot(w, title, series, width, height, shouldUseColor(w, true))
}

func plot(w io.Writer, title string, series []Series, width, height int, color bool) error {
	series = nonEmpty(series)
	if len(series) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	width = max(width, minPlotWidth)

	lines := make([]Series, len(series))
	ranges := make([]valueRange, len(series))
	grids := make([][][]uint8, len(series))
	for i, s := range series {
		lines[i] = Series{Name: s.Name, Values: resample(s.Values, width)}
		ranges[i] = rangeOf(lines[i].Values)
		grids[i] = rasterize(lines[i].Values, ranges[i], dashes[i%len(dashes)], width, height)
	}

	var b strings.Builder
	if title != "" {
		b.WriteString(title + "\n")
	}
	for i, s := range lines {
		fmt.Fprintf(&b, "%s: min=%.2f max=%.2f\n", s.Name, ranges[i].lo, ranges[i].hi)
	}
	labels := axisLabels(height)
	labelWidth := utf8.RuneCountInString(axisMax)
	for y := 0; y < height; y++ {
		fmt.Fprintf(&b, "%*s%s", labelWidth, labels[y], axisSeparator)
		for x := 0; x < width; x++ {
			mask, owner := mergeCell(grids, x, y)
			ch := string(rune(0x2800 + int(mask)))
			if color && owner >= 0 {
				ch = palette[owner%len(palette)] + ch + colorReset
			}
			b.WriteString(ch)
		}
		b.WriteString("\n")
	}
	b.WriteString(legend(lines, color) + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// PlotWidthFor returns the plot width that fits next to the axis in totalWidth columns.
func PlotWidthFor(totalWidth int) int {
	axis := utf8.RuneCountInString(axisMax) + utf8.RuneCountInString(axisSeparator)
	return max(totalWidth-axis, minPlotWidth)
}

func nonEmpty(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

func axisLabels(height int) []string {
	labels := make([]string, height)
	if height == 0 {
		return labels
	}
	labels[0] = axisMax
	if height > 2 {
		labels[height/2] = axisMid
	}
	if height > 1 {
		labels[height-1] = axisMin
	}
	return labels
}

func rangeOf(values []float64) valueRange {
	r := valueRange{lo: math.Inf(1), hi: math.Inf(-1)}
	for _, v := range values {
		r.lo = math.Min(r.lo, v)
		r.hi = math.Max(r.hi, v)
	}
	if math.IsInf(r.lo, 0) || math.IsInf(r.hi, 0) {
		return valueRange{lo: -1, hi: 1}
	}
	if r.hi-r.lo < 1e-9 {
		r.lo--
		r.hi++
	}
	return r
}

// rasterize draws values as connected dots into a height x width grid of braille masks.
func rasterize(values []float64, r valueRange, d dash, width, height int) [][]uint8 {
	grid := make([][]uint8, height)
	for y := range grid {
		grid[y] = make([]uint8, width)
	}
	rows := height * dotsPerCellY
	px, py := -1, -1
	for i, v := range values {
		x, y := i*dotsPerCellX, dotRow(v, r, rows)
		set := func(dx, dy int) {
			if d.visible(dx) {
				setDot(grid, dx, dy)
			}
		}
		if px < 0 {
			set(x, y)
		} else {
			bresenham(px, py, x, y, set)
		}
		px, py = x, y
	}
	return grid
}

func dotRow(v float64, r valueRange, rows int) int {
	if rows <= 1 {
		return 0
	}
	pos := (v - r.lo) / (r.hi - r.lo)
	row := int(math.Round((1 - pos) * float64(rows-1)))
	return max(0, min(row, rows-1))
}

func mergeCell(grids [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	owner := -1
	for i, g := range grids {
		m := g[y][x]
		if m == 0 {
			continue
		}
		if owner < 0 {
			owner = i
		}
		mask |= m
	}
	return mask, owner
}

// resample stretches or averages values down to exactly width points.
func resample(values []float64, width int) []float64 {
	out := make([]float64, width)
	n := len(values)
	switch {
	case n == width:
		copy(out, values)
	case n > width:
		for i := range out {
			start := i * n / width
			end := max((i+1)*n/width, start+1)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case n == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		for i := range out {
			pos := float64(i) * float64(n-1) / float64(width-1)
			idx := int(pos)
			if idx >= n-1 {
				out[i] = values[n-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

func legend(series []Series, color bool) string {
	parts := make([]string, 0, len(series))
	for i, s := range series {
		label := fmt.Sprintf("%s (%s)", s.Name, dashes[i%len(dashes)].name)
		if color {
			label = palette[i%len(palette)] + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func bresenham(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := x1 - x0
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y0
	if dy > 0 {
		dy = -dy
	}
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				return
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				return
			}
			err += dx
			y0 += sy
		}
	}
}

// setDot lights the dot at (x, y) in dot coordinates.
func setDot(grid [][]uint8, x, y int) {
	cy, cx := y/dotsPerCellY, x/dotsPerCellX
	if x < 0 || y < 0 || cy >= len(grid) || cx >= len(grid[cy]) {
		return
	}
	grid[cy][cx] |= dotMask(x%dotsPerCellX, y%dotsPerCellY)
}

// dotMask maps a dot within a cell to its braille bit.
func dotMask(x, y int) uint8 {
	left := [dotsPerCellY]uint8{0x01, 0x02, 0x04, 0x40}
	right := [dotsPerCellY]uint8{0x08, 0x10, 0x20, 0x80}
	if x == 0 {
		return left[y]
	}
	return right[y]
}
