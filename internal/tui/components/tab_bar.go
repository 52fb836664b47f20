package components

import "github.com/charmbracelet/lipgloss"

// Tab is a single selectable label
type Tab struct {
	Label string
}

// RenderTabBar renders a horizontal bar of tabs with activeIndex highlighted.
func RenderTabBar(tabs []Tab, activeIndex int, activeStyle, inactiveStyle lipgloss.Style) string {
	rendered := make([]string, 0, len(tabs))
	for i, t := range tabs {
		style := inactiveStyle
		if i == activeIndex {
			style = activeStyle
		}
		rendered = append(rendered, style.Render(t.Label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, rendered...)
}
