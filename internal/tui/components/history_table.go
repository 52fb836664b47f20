package components

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/snip-cli/snip/internal/history"
	"github.com/snip-cli/snip/internal/tui/colors"
	"github.com/snip-cli/snip/internal/utils"
)

const (
	timeColWidth     = 16
	providerColWidth = 10
	minURLColWidth   = 16
)

// NewHistoryTable builds an empty history table.
func NewHistoryTable(width, height int) table.Model {
	t := table.New(
		table.WithColumns(HistoryColumns(width)),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colors.Gray).
		BorderBottom(true).
		Foreground(colors.NeonCyan).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(colors.White).
		Background(colors.NeonPurple).
		Bold(false)
	t.SetStyles(s)
	return t
}

// HistoryColumns splits width between the fixed and URL columns.
func HistoryColumns(width int) []table.Column {
	urlWidth := (width - timeColWidth - providerColWidth - 8) / 2
	if urlWidth < minURLColWidth {
		urlWidth = minURLColWidth
	}
	return []table.Column{
		{Title: "Time", Width: timeColWidth},
		{Title: "Provider", Width: providerColWidth},
		{Title: "Original", Width: urlWidth},
		{Title: "Short", Width: urlWidth},
	}
}

// HistoryRows converts entries into table rows, newest first.
func HistoryRows(entries []history.Entry, urlWidth int) []table.Row {
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		ts := ""
		if !e.Timestamp.IsZero() {
			ts = e.Timestamp.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, table.Row{
			ts,
			e.Provider.Label(),
			utils.Truncate(e.LongURL, urlWidth),
			utils.Truncate(e.ShortURL, urlWidth),
		})
	}
	return rows
}
