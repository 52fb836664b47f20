package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/snip-cli/snip/internal/clipboard"
	"github.com/snip-cli/snip/internal/core"
	"github.com/snip-cli/snip/internal/shorten"
	"github.com/snip-cli/snip/internal/tui/components"
)

const (
	InputWidth        = 60
	DefaultWidth      = 100
	historyHeight     = 10
	copiedDuration    = 1200 * time.Millisecond
	defaultAlertDelay = 4 * time.Second
)

// UIState selects which part of the widget receives keys.
type UIState int

const (
	FormState UIState = iota
	HistoryState
	ConfirmClearState
)

// Input focus within the form
const (
	urlField = iota
	slugField
)

// Options configures the TUI.
type Options struct {
	Providers     []shorten.ProviderID
	Provider      shorten.ProviderID
	AlertTimeout  time.Duration
	CopyOnSuccess bool
	// Prefill reads the clipboard at startup
	Prefill bool
	// ExportPath is where ctrl+e writes the CSV
	ExportPath string
	// Remote is the server address when driving `snip serve`
	Remote  string
	Version string
}

type RootModel struct {
	widget *core.Widget
	st     core.State
	opts   Options

	state     UIState
	urlInput  textinput.Model
	slugInput textinput.Model
	focused   int

	providers   []shorten.ProviderID
	providerIdx int

	table table.Model
	help  help.Model
	keys  KeyMap

	// alertSeq invalidates stale dismiss ticks
	alertSeq  int
	copiedSeq int

	width  int
	height int
}

// shortenDoneMsg carries the outcome of a background shorten.
type shortenDoneMsg struct {
	res core.Result
	err error
}

type alertExpiredMsg struct{ seq int }

type copiedExpiredMsg struct{ seq int }

// NewRootModel builds the widget UI. The initial state is read from storage.
func NewRootModel(w *core.Widget, opts Options) RootModel {
	if len(opts.Providers) == 0 {
		opts.Providers = shorten.AllProviders()
	}
	if opts.AlertTimeout == 0 {
		opts.AlertTimeout = defaultAlertDelay
	}

	urlInput := textinput.New()
	urlInput.Placeholder = "https://example.com/a/very/long/link"
	urlInput.Prompt = ""
	urlInput.Width = InputWidth
	urlInput.CharLimit = 2048
	urlInput.Focus()

	slugInput := textinput.New()
	slugInput.Placeholder = "(random)"
	slugInput.Prompt = ""
	slugInput.Width = 24
	slugInput.CharLimit = 64

	providerIdx := 0
	for i, p := range opts.Providers {
		if p == opts.Provider {
			providerIdx = i
			break
		}
	}

	m := RootModel{
		widget:      w,
		opts:        opts,
		state:       FormState,
		urlInput:    urlInput,
		slugInput:   slugInput,
		providers:   opts.Providers,
		providerIdx: providerIdx,
		table:       components.NewHistoryTable(DefaultWidth, historyHeight),
		help:        help.New(),
		keys:        Keys,
		width:       DefaultWidth,
	}

	m.st = w.Init(m.provider())
	if opts.Prefill {
		if u := clipboard.ReadURL(); u != "" {
			m.urlInput.SetValue(u)
		}
	}
	m.syncTable()
	return m
}

func (m RootModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m RootModel) provider() shorten.ProviderID {
	if len(m.providers) == 0 {
		return shorten.TinyURL
	}
	return m.providers[m.providerIdx]
}

// State returns the current widget state.
func (m RootModel) State() core.State { return m.st }

func (m *RootModel) syncTable() {
	cols := components.HistoryColumns(m.width - 6)
	m.table.SetColumns(cols)
	m.table.SetRows(components.HistoryRows(m.st.History, cols[2].Width))
	if c := m.table.Cursor(); c >= len(m.st.History) && len(m.st.History) > 0 {
		m.table.SetCursor(len(m.st.History) - 1)
	}
	m.keys.Widget.Export.SetEnabled(m.st.CanExport())
	m.keys.Widget.Clear.SetEnabled(m.st.CanExport())
}
