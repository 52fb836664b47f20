package components

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/snip-cli/snip/internal/tui/colors"
)

// ConfirmationModal renders a styled confirmation dialog box
type ConfirmationModal struct {
	Title       string
	Message     string
	Detail      string // Optional additional line, e.g. the entry count
	Keys        help.KeyMap
	Help        help.Model
	BorderColor lipgloss.TerminalColor
	Width       int
}

// NewConfirmationModal creates a modal with default styling
func NewConfirmationModal(title, message, detail string, keys help.KeyMap, helpModel help.Model, borderColor lipgloss.TerminalColor) ConfirmationModal {
	return ConfirmationModal{
		Title:       title,
		Message:     message,
		Detail:      detail,
		Keys:        keys,
		Help:        helpModel,
		BorderColor: borderColor,
		Width:       50,
	}
}

// View renders the modal content without the box
func (m ConfirmationModal) View() string {
	titleStyle := lipgloss.NewStyle().Foreground(colors.NeonCyan).Bold(true)
	detailStyle := lipgloss.NewStyle().Foreground(colors.NeonPurple).Bold(true)

	lines := []string{titleStyle.Render(m.Title), "", m.Message}
	if m.Detail != "" {
		lines = append(lines, "", detailStyle.Render(m.Detail))
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

// Centered returns the modal centered in the given dimensions
func (m ConfirmationModal) Centered(width, height int) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(m.BorderColor).
		Padding(1, 4).
		Width(m.Width)

	helpText := lipgloss.NewStyle().
		Foreground(colors.LightGray).
		Render(m.Help.View(m.Keys))

	content := lipgloss.JoinVertical(lipgloss.Center, m.View(), "", helpText)
	box := boxStyle.Align(lipgloss.Center).Render(content)
	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
