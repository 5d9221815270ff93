package ui

import (
	"github.com/charmbracelet/lipgloss"

	"go22dos/internal/config"
)

type styles struct {
	regular      lipgloss.Style
	highlight    lipgloss.Style
	checkboxTodo lipgloss.Style
	checkboxDone lipgloss.Style
	other        lipgloss.Style
	title        lipgloss.Style
	status       lipgloss.Style
	errorText    lipgloss.Style
}

func newStyles(t config.Theme) styles {
	return styles{
		regular: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Regular)),
		highlight: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.HighlightFg)).
			Background(lipgloss.Color(t.HighlightBg)),
		checkboxTodo: lipgloss.NewStyle().Foreground(lipgloss.Color(t.CheckboxTodo)),
		checkboxDone: lipgloss.NewStyle().Foreground(lipgloss.Color(t.CheckboxDone)),
		other:        lipgloss.NewStyle().Foreground(lipgloss.Color(t.Other)),
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Other)).
			MarginBottom(1),
		status:    lipgloss.NewStyle().Foreground(lipgloss.Color(t.Other)).Italic(true),
		errorText: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}
