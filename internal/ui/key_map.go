package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	up, down, enter, back key.Binding
	export, restart, quit key.Binding
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

func newKeyMap() keyMap {
	return keyMap{
		up:      bind("↑/k", "up", "up", "k"),
		down:    bind("↓/j", "down", "down", "j"),
		enter:   bind("enter", "songs", "enter"),
		back:    bind("esc", "back", "esc"),
		export:  bind("e", "export", "e"),
		restart: bind("r", "playlists", "r"),
		quit:    bind("q", "quit", "q", "ctrl+c"),
	}
}

func (k keyMap) ShortHelp() []key.Binding { return []key.Binding{k.quit} }

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.up, k.down, k.enter}, {k.back, k.export}, {k.restart, k.quit}}
}
