package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles for the chat view.
type Styles struct {
	Header   lipgloss.Style
	User     lipgloss.Style
	Model    lipgloss.Style
	Citation lipgloss.Style
	Notice   lipgloss.Style
	Error    lipgloss.Style
	Muted    lipgloss.Style
	Spinner  lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		User:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Model:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135")),
		Citation: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Notice:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Spinner:  lipgloss.NewStyle().Foreground(lipgloss.Color("63")),
	}
}
