package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the entire application
type KeyMap struct {
	Widget  WidgetKeyMap
	History HistoryKeyMap
	Confirm ConfirmKeyMap
}

// WidgetKeyMap is active while the form has focus
type WidgetKeyMap struct {
	Shorten  key.Binding
	Reset    key.Binding
	Copy     key.Binding
	Open     key.Binding
	Export   key.Binding
	Clear    key.Binding
	Theme    key.Binding
	Provider key.Binding
	Focus    key.Binding
	Quit     key.Binding
}

// HistoryKeyMap is active while the history table has focus
type HistoryKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Delete key.Binding
	Copy   key.Binding
	Open   key.Binding
	Back   key.Binding
}

// ConfirmKeyMap drives the clear-history confirmation
type ConfirmKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// Keys contains all the keybindings for the application
var Keys = KeyMap{
	Widget: WidgetKeyMap{
		Shorten: key.NewBinding(
			key.WithKeys("enter", "ctrl+s"),
			key.WithHelp("enter", "shorten"),
		),
		Reset: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reset"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy"),
		),
		Open: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "open"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "export csv"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "clear history"),
		),
		Theme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "theme"),
		),
		Provider: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "provider"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "history"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("ctrl+q", "quit"),
		),
	},
	History: HistoryKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "x", "delete"),
			key.WithHelp("d", "remove"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c", "y"),
			key.WithHelp("c", "copy"),
		),
		Open: key.NewBinding(
			key.WithKeys("o", "enter"),
			key.WithHelp("o", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "tab", "shift+tab"),
			key.WithHelp("esc", "back"),
		),
	},
	Confirm: ConfirmKeyMap{
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y", "enter"),
			key.WithHelp("y", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "cancel"),
		),
	},
}

// ShortHelp returns keybindings to show in the mini help view
func (k WidgetKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Shorten, k.Provider, k.Copy, k.Open, k.Export, k.Clear, k.Theme, k.Focus, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k WidgetKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Shorten, k.Reset, k.Provider},
		{k.Copy, k.Open, k.Export, k.Clear},
		{k.Theme, k.Focus, k.Quit},
	}
}

func (k HistoryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Delete, k.Copy, k.Open, k.Back}
}

func (k HistoryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Delete, k.Copy, k.Open, k.Back}}
}

func (k ConfirmKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

func (k ConfirmKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Confirm, k.Cancel}}
}
