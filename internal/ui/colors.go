package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Xiami orange for titles, muted grey for hints.
var styles = newTheme(theme{
	accent: "#FF6A00",
	ok:     "#2BB673",
	err:    "#E5484D",
	muted:  "#7A7A7A",
})

type theme struct {
	accent, ok, err, muted string
}

// sheet holds the rendered styles for one theme.
type sheet struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	help   lipgloss.Style
	status lipgloss.Style
}

func newTheme(t theme) *sheet {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return &sheet{
		title:  fg(t.accent).Bold(true).MarginBottom(1),
		ok:     fg(t.ok).Bold(true),
		err:    fg(t.err).Bold(true),
		help:   fg(t.muted).Italic(true),
		status: fg(t.accent),
	}
}
