package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
)

// timerOptions are the countdown lengths the timer key cycles through.
var timerOptions = []time.Duration{
	15 * time.Second,
	30 * time.Second,
	time.Minute,
	2 * time.Minute,
	5 * time.Minute,
}

// nextTimer returns the first option longer than cur, wrapping to the shortest.
func nextTimer(cur time.Duration) time.Duration {
	for _, d := range timerOptions {
		if d > cur {
			return d
		}
	}
	return timerOptions[0]
}

type keyMap struct {
	Restart key.Binding
	Timer   key.Binding
	Dismiss key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Restart: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "new text"),
		),
		Timer: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "timer"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("enter", "tab"),
			key.WithHelp("enter", "continue"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Restart, k.Timer, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Restart, k.Timer, k.Dismiss, k.Quit}}
}

type resultKeys struct {
	keyMap
}

func (k resultKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Dismiss, k.Quit}
}
