package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Run      key.Binding
	Newline  key.Binding
	Prev     key.Binding
	Next     key.Binding
	Scroll   key.Binding
	Complete key.Binding
	Clear    key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Run, k.Newline, k.Complete, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Run, k.Newline, k.Clear},
		{k.Prev, k.Next, k.Scroll},
		{k.Complete, k.Quit},
	}
}

var keys = keyMap{
	Run:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run")),
	Newline:  key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"), key.WithHelp("alt+enter", "newline")),
	Prev:     key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "prev")),
	Next:     key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "next")),
	Scroll:   key.NewBinding(key.WithKeys("pgup", "pgdown"), key.WithHelp("pgup/pgdn", "scroll")),
	Complete: key.NewBinding(key.WithKeys("tab"), key.WithHelp("/ tab", "commands")),
	Clear:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear input")),
	Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}
