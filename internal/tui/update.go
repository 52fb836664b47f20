package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/snip-cli/snip/internal/core"
	"github.com/snip-cli/snip/internal/shorten"
	"github.com/snip-cli/snip/internal/utils"
)

// Update handles messages and updates the model
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.syncTable()
		return m, nil

	case shortenDoneMsg:
		m.st = m.widget.FinishShorten(m.st, msg.res, msg.err)
		m.syncTable()
		cmds := []tea.Cmd{m.alertTick()}
		if msg.err == nil {
			m.slugInput.SetValue("")
			if m.opts.CopyOnSuccess {
				var cmd tea.Cmd
				m, cmd = m.dispatch(core.Command{Intent: core.IntentCopy})
				cmds = append(cmds, cmd)
			}
		}
		return m, tea.Batch(cmds...)

	case alertExpiredMsg:
		// The busy alert stays until the request settles
		if msg.seq == m.alertSeq && !m.st.Busy {
			m.st.Alert = core.Alert{}
		}
		return m, nil

	case copiedExpiredMsg:
		if msg.seq == m.copiedSeq {
			m.st.Copied = false
		}
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case ConfirmClearState:
			return m.updateConfirm(msg)
		case HistoryState:
			return m.updateHistory(msg)
		default:
			return m.updateForm(msg)
		}
	}

	return m, nil
}

func (m RootModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := m.keys.Widget
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Shorten):
		return m.startShorten()

	case key.Matches(msg, keys.Reset):
		m.urlInput.SetValue("")
		m.slugInput.SetValue("")
		m.focusURL()
		return m.dispatch(core.Command{Intent: core.IntentReset})

	case key.Matches(msg, keys.Copy):
		return m.dispatch(core.Command{Intent: core.IntentCopy})

	case key.Matches(msg, keys.Open):
		return m.dispatch(core.Command{Intent: core.IntentOpen})

	case key.Matches(msg, keys.Export):
		return m.dispatch(core.Command{Intent: core.IntentExport, Path: m.opts.ExportPath})

	case key.Matches(msg, keys.Clear):
		m.state = ConfirmClearState
		return m, nil

	case key.Matches(msg, keys.Theme):
		return m.dispatch(core.Command{Intent: core.IntentTheme})

	case key.Matches(msg, keys.Provider):
		m.providerIdx = (m.providerIdx + 1) % len(m.providers)
		m.st.Provider = m.provider()
		if m.provider() != shorten.Local {
			m.focusURL()
		}
		return m, nil

	case key.Matches(msg, keys.Focus):
		return m.cycleFocus()
	}

	var cmd tea.Cmd
	if m.focused == slugField {
		m.slugInput, cmd = m.slugInput.Update(msg)
	} else {
		m.urlInput, cmd = m.urlInput.Update(msg)
	}
	return m, cmd
}

func (m RootModel) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := m.keys.History
	switch {
	case key.Matches(msg, m.keys.Widget.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Back):
		m.table.Blur()
		m.state = FormState
		m.focusURL()
		return m, nil

	case key.Matches(msg, keys.Delete):
		if len(m.st.History) == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m, cmd = m.dispatch(core.Command{Intent: core.IntentDelete, Index: m.table.Cursor()})
		if len(m.st.History) == 0 {
			m.table.Blur()
			m.state = FormState
			m.focusURL()
		}
		return m, cmd

	case key.Matches(msg, keys.Copy):
		if e, ok := m.selected(); ok {
			return m.dispatch(core.Command{Intent: core.IntentCopy, Target: e})
		}
		return m, nil

	case key.Matches(msg, keys.Open):
		if e, ok := m.selected(); ok {
			return m.dispatch(core.Command{Intent: core.IntentOpen, Target: e})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m RootModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm.Confirm):
		m.state = FormState
		m.table.Blur()
		m.focusURL()
		return m.dispatch(core.Command{Intent: core.IntentClear})
	case key.Matches(msg, m.keys.Confirm.Cancel):
		m.state = FormState
		return m, nil
	}
	return m, nil
}

// startShorten marks the widget busy and runs the request off the update loop.
func (m RootModel) startShorten() (tea.Model, tea.Cmd) {
	m.st.Input = m.urlInput.Value()
	m.st.Provider = m.provider()
	m.st.Slug = ""
	if m.st.Provider == shorten.Local {
		m.st.Slug = m.slugInput.Value()
	}

	next, err := m.widget.BeginShorten(m.st)
	if errors.Is(err, core.ErrBusy) {
		return m, nil
	}
	m.st = next
	if err != nil {
		tick := m.alertTick()
		return m, tick
	}

	w := m.widget
	return m, func() tea.Msg {
		res, err := w.RunShorten(context.Background(), next)
		return shortenDoneMsg{res: res, err: err}
	}
}

// dispatch runs a synchronous intent and schedules any timers it needs.
func (m RootModel) dispatch(cmd core.Command) (RootModel, tea.Cmd) {
	prev := m.st.Alert
	st, err := m.widget.Dispatch(context.Background(), m.st, cmd)
	if err != nil {
		utils.Debug("tui: %s failed: %v", cmd.Intent, err)
	}
	m.st = st
	m.syncTable()

	var cmds []tea.Cmd
	if st.Alert != prev && st.Alert.Visible() {
		cmds = append(cmds, m.alertTick())
	}
	if cmd.Intent == core.IntentCopy && st.Copied {
		m.copiedSeq++
		seq := m.copiedSeq
		cmds = append(cmds, tea.Tick(copiedDuration, func(time.Time) tea.Msg {
			return copiedExpiredMsg{seq: seq}
		}))
	}
	return m, tea.Batch(cmds...)
}

func (m *RootModel) alertTick() tea.Cmd {
	m.alertSeq++
	if !m.st.Alert.Visible() || m.st.Busy {
		return nil
	}
	seq := m.alertSeq
	return tea.Tick(m.opts.AlertTimeout, func(time.Time) tea.Msg {
		return alertExpiredMsg{seq: seq}
	})
}

func (m *RootModel) cycleFocus() (tea.Model, tea.Cmd) {
	if m.focused == urlField && m.provider() == shorten.Local {
		m.urlInput.Blur()
		m.focused = slugField
		return *m, m.slugInput.Focus()
	}
	if len(m.st.History) > 0 {
		m.urlInput.Blur()
		m.slugInput.Blur()
		m.state = HistoryState
		m.table.Focus()
		return *m, nil
	}
	m.focusURL()
	return *m, nil
}

func (m *RootModel) focusURL() {
	m.focused = urlField
	m.slugInput.Blur()
	m.urlInput.Focus()
}

func (m RootModel) selected() (string, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.st.History) {
		return "", false
	}
	return m.st.History[i].ShortURL, true
}
