package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding the app reacts to. List navigation keys live in
// the habit list itself; Up and Down are here for the help view only.
type KeyMap struct {
	// navigation
	Tab, ShiftTab, Up, Down key.Binding
	// habit actions
	Toggle, Add, Delete, Stats key.Binding
	// delete confirmation
	Confirm, Cancel key.Binding

	Help, Quit key.Binding
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Add, k.Tab, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Tab, k.ShiftTab},
		{k.Toggle, k.Add, k.Delete, k.Stats},
		{k.Help, k.Quit},
	}
}

func bind(label, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, desc))
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tab:      bind("tab", "next tab", "tab"),
		ShiftTab: bind("shift+tab", "prev tab", "shift+tab"),
		Up:       bind("↑/k", "up", "up", "k"),
		Down:     bind("↓/j", "down", "down", "j"),

		Toggle: bind("space", "done today", " "),
		Add:    bind("a", "new habit", "a"),
		Delete: bind("d", "delete", "d"),
		Stats:  bind("s", "stats", "s"),

		Confirm: bind("y", "yes", "y"),
		Cancel:  bind("n/esc", "no", "n", "esc"),

		Help: bind("?", "more keys", "?"),
		Quit: bind("q", "quit", "q", "ctrl+c"),
	}
}
