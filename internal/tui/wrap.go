package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrongSpaceRune marks a space that was typed as something else.
const wrongSpaceRune = '•'

// cell is one rendered character of the text area.
type cell struct {
	s       string
	width   int
	isSpace bool
}

// styleTarget renders target against typed. match reports whether typed[i]
// is correct; cursor is the next position to type or -1 when none.
func styleTarget(target, typed []rune, cursor int, match func(int) bool) []cell {
	current, hasCurrent := wordAt(target, cursor)

	out := make([]cell, 0, len(target))
	for i, r := range target {
		shown := r
		style := pendingStyle
		switch {
		case i < len(typed) && match(i):
			style = correctStyle
		case i < len(typed):
			style = incorrectStyle
			if r == ' ' {
				shown = wrongSpaceRune
			}
		case r != ' ' && hasCurrent && i >= current.start && i < current.end:
			style = currentWordStyle
		}
		if i == cursor {
			style = style.Underline(true)
		}
		out = append(out, newCell(style.Render(string(shown)), shown, r == ' '))
	}
	return out
}

// styleHistory renders the typed part of a finished session, showing the
// target character coloured by whether it was hit.
func styleHistory(word, typed string) []cell {
	target := []rune(word)
	input := []rune(typed)
	out := make([]cell, 0, len(input))
	for i, r := range input {
		if i >= len(target) {
			break
		}
		want := target[i]
		style := correctStyle
		shown := want
		if r != want {
			style = incorrectStyle
			if want == ' ' {
				shown = wrongSpaceRune
			}
		}
		out = append(out, newCell(style.Render(string(shown)), shown, want == ' '))
	}
	return out
}

func newCell(rendered string, r rune, isSpace bool) cell {
	return cell{s: rendered, width: runewidth.RuneWidth(r), isSpace: isSpace}
}

type span struct {
	start int
	end   int
}

// wordAt returns the word containing pos, or the next word after it.
func wordAt(target []rune, pos int) (span, bool) {
	if pos < 0 {
		pos = 0
	}
	if pos >= len(target) {
		return span{}, false
	}
	start := pos
	for start < len(target) && target[start] == ' ' {
		start++
	}
	if start == len(target) {
		return span{}, false
	}
	for start > 0 && target[start-1] != ' ' {
		start--
	}
	end := start
	for end < len(target) && target[end] != ' ' {
		end++
	}
	return span{start: start, end: end}, true
}

func joinCells(cells []cell) string {
	var b strings.Builder
	for _, c := range cells {
		b.WriteString(c.s)
	}
	return b.String()
}

// wrapCells breaks cells into lines no wider than width, preferring to break
// at spaces. The breaking space is dropped; words longer than width are split.
func wrapCells(cells []cell, width int) string {
	if width <= 0 {
		return joinCells(cells)
	}
	var lines []string
	for len(cells) > 0 {
		used, fit := 0, 0
		for fit < len(cells) && used+cells[fit].width <= width {
			used += cells[fit].width
			fit++
		}
		if fit == 0 {
			fit = 1
		}
		if fit >= len(cells) {
			lines = append(lines, joinCells(cells))
			break
		}
		cut, skip := fit, 0
		if cells[fit].isSpace {
			skip = 1
		} else {
			for i := fit - 1; i > 0; i-- {
				if cells[i].isSpace {
					cut, skip = i, 1
					break
				}
			}
		}
		lines = append(lines, joinCells(cells[:cut]))
		cells = cells[cut+skip:]
	}
	return strings.Join(lines, "\n")
}
