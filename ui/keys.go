package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Up            key.Binding
	Down          key.Binding
	Left          key.Binding
	Right         key.Binding
	PageUp        key.Binding
	PageDown      key.Binding
	Pick          key.Binding
	Delete        key.Binding
	DeleteProject key.Binding
	Fix           key.Binding
	NewTicket     key.Binding
	NewProject    key.Binding
	Refresh       key.Binding
	Today         key.Binding
	Help          key.Binding
	Quit          key.Binding
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pick, k.NewTicket, k.NewProject, k.Delete, k.Fix, k.Refresh, k.Today, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.PageUp, k.PageDown},
		{k.Pick, k.Fix, k.NewTicket, k.NewProject},
		{k.Delete, k.DeleteProject, k.Refresh, k.Today},
		{k.Help, k.Quit},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:            key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:          key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:          key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:         key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		PageUp:        key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown:      key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		Pick:          key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pick/drop")),
		Delete:        key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete ticket")),
		DeleteProject: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete project")),
		Fix:           key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fix/unfix")),
		NewTicket:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new ticket")),
		NewProject:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "new project")),
		Refresh:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh all")),
		Today:         key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
		Help:          key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}
