package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/snip-cli/snip/internal/shorten"
	"github.com/snip-cli/snip/internal/tui/colors"
	"github.com/snip-cli/snip/internal/tui/components"
)

const logo = `┏━┓┏┓╻╻┏━┓
┗━┓┃┗┫┃┣━┛
┗━┛╹ ╹╹╹  `

const emptyHistory = "No links yet."

func (m RootModel) View() string {
	if m.state == ConfirmClearState {
		modal := components.NewConfirmationModal(
			"Clear history",
			"Remove every saved link?",
			fmt.Sprintf("%d entries", len(m.st.History)),
			m.keys.Confirm,
			m.help,
			colors.AlertError,
		)
		return modal.Centered(m.width, m.height)
	}

	sections := []string{
		m.renderHeader(),
		m.renderForm(),
	}
	if m.st.Alert.Visible() {
		sections = append(sections, AlertStyle(m.st.Alert.Kind).Render(m.st.Alert.Text))
	}
	sections = append(sections,
		m.renderResult(),
		m.renderHistory(),
		m.renderHelp(),
	)
	return AppStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m RootModel) renderHeader() string {
	title := ApplyGradient(logo, colors.LogoStart, colors.LogoEnd)
	right := HintStyle.Render(m.st.Theme.Indicator())
	if m.opts.Remote != "" {
		right = HintStyle.Render("connected to "+m.opts.Remote) + "  " + right
	}
	if m.opts.Version != "" {
		right = HintStyle.Render("v"+strings.TrimPrefix(m.opts.Version, "v")) + "  " + right
	}
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(right) - 6
	if gap < 2 {
		gap = 2
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, strings.Repeat(" ", gap), right)
}

func (m RootModel) renderForm() string {
	tabs := make([]components.Tab, len(m.providers))
	for i, p := range m.providers {
		tabs[i] = components.Tab{Label: p.Label()}
	}

	rows := []string{
		lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render("URL"), m.urlInput.View()),
		lipgloss.JoinHorizontal(lipgloss.Bottom, LabelStyle.Render("Provider"),
			components.RenderTabBar(tabs, m.providerIdx, ActiveProviderStyle, ProviderStyle)),
	}
	if m.provider() == shorten.Local {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render("Slug"), m.slugInput.View()))
	}

	button := ButtonStyle.Render("Shorten")
	if m.st.Busy {
		button = BusyButtonStyle.Render("Working…")
	}
	rows = append(rows, "", button)

	style := PaneStyle
	if m.state == FormState {
		style = ActivePaneStyle
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m RootModel) renderResult() string {
	link := HintStyle.Render("—")
	if m.st.Result != nil {
		link = ShortLinkStyle.Render(m.st.Result.ShortURL)
		if m.st.Copied {
			link += "  " + CopiedStyle.Render("Copied!")
		}
	}
	return PaneStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render("Short"), link))
}

func (m RootModel) renderHistory() string {
	title := PaneTitleStyle.Render(fmt.Sprintf("History (%d)", len(m.st.History)))

	body := HintStyle.Render(emptyHistory)
	if len(m.st.History) > 0 {
		body = m.table.View()
	}

	style := PaneStyle
	if m.state == HistoryState {
		style = ActivePaneStyle
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}

func (m RootModel) renderHelp() string {
	if m.state == HistoryState {
		return m.help.View(m.keys.History)
	}
	return m.help.View(m.keys.Widget)
}
