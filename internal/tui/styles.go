package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/snip-cli/snip/internal/core"
	"github.com/snip-cli/snip/internal/tui/colors"
)

// === Layout Styles ===
var (
	AppStyle = lipgloss.NewStyle().
			Foreground(colors.White).
			Padding(1, 2)

	// Standard pane border
	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Gray).
			Padding(0, 1)

	// Focus style for the active pane
	ActivePaneStyle = PaneStyle.
			BorderForeground(colors.NeonPink)

	// === Text Styles ===

	PaneTitleStyle = lipgloss.NewStyle().
			Foreground(colors.NeonCyan).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(colors.LightGray).
			Width(10)

	HintStyle = lipgloss.NewStyle().
			Foreground(colors.LightGray)

	ShortLinkStyle = lipgloss.NewStyle().
			Foreground(colors.NeonPink).
			Bold(true).
			Underline(true)

	ProviderStyle = lipgloss.NewStyle().
			Foreground(colors.LightGray).
			Padding(0, 1)

	ActiveProviderStyle = lipgloss.NewStyle().
				Foreground(colors.NeonPink).
				Border(lipgloss.NormalBorder(), false, false, true, false).
				BorderForeground(colors.NeonPink).
				Padding(0, 1).
				Bold(true)

	ButtonStyle = lipgloss.NewStyle().
			Foreground(colors.White).
			Background(colors.NeonPurple).
			Padding(0, 2)

	BusyButtonStyle = ButtonStyle.
			Background(colors.Gray)

	CopiedStyle = lipgloss.NewStyle().
			Foreground(colors.AlertOK).
			Bold(true)
)

var alertBase = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder(), false, false, false, true).
	PaddingLeft(1)

// AlertStyle returns the style for an alert of the given kind.
func AlertStyle(kind core.AlertKind) lipgloss.Style {
	switch kind {
	case core.AlertError:
		return alertBase.BorderForeground(colors.AlertError).Foreground(colors.AlertError)
	case core.AlertWarn:
		return alertBase.BorderForeground(colors.AlertWarn).Foreground(colors.AlertWarn)
	case core.AlertOK:
		return alertBase.BorderForeground(colors.AlertOK).Foreground(colors.AlertOK)
	default:
		return alertBase.BorderForeground(colors.AlertInfo).Foreground(colors.White)
	}
}
