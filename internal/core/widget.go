package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/snip-cli/snip/internal/clipboard"
	"github.com/snip-cli/snip/internal/history"
	"github.com/snip-cli/snip/internal/shorten"
	"github.com/snip-cli/snip/internal/source"
	"github.com/snip-cli/snip/internal/theme"
	"github.com/snip-cli/snip/internal/utils"
)

// ErrBusy is returned when a shorten is requested while one is in flight.
var ErrBusy = errors.New("a shorten request is already in progress")

// Intent names a user action on the widget.
type Intent int

const (
	IntentShorten Intent = iota
	IntentReset
	IntentCopy
	IntentOpen
	IntentExport
	IntentClear
	IntentDelete
	IntentTheme
)

func (i Intent) String() string {
	switch i {
	case IntentShorten:
		return "shorten"
	case IntentReset:
		return "reset"
	case IntentCopy:
		return "copy"
	case IntentOpen:
		return "open"
	case IntentExport:
		return "export"
	case IntentClear:
		return "clear"
	case IntentDelete:
		return "delete"
	case IntentTheme:
		return "theme"
	}
	return fmt.Sprintf("intent(%d)", int(i))
}

// Command is one dispatched action. Index is used by IntentDelete and
// Path by IntentExport. Target, when set, makes copy and open act on a
// history link instead of the current result.
type Command struct {
	Intent Intent
	Index  int
	Path   string
	Target string
}

type AlertKind int

const (
	AlertNone AlertKind = iota
	AlertInfo
	AlertOK
	AlertWarn
	AlertError
)

func (k AlertKind) String() string {
	switch k {
	case AlertInfo:
		return "info"
	case AlertOK:
		return "ok"
	case AlertWarn:
		return "warn"
	case AlertError:
		return "error"
	}
	return "none"
}

type Alert struct {
	Kind AlertKind
	Text string
}

// Visible reports whether the alert should be rendered.
func (a Alert) Visible() bool { return a.Kind != AlertNone && a.Text != "" }

// State is everything the widget renders.
type State struct {
	Input    string
	Provider shorten.ProviderID
	Slug     string

	Busy    bool
	Alert   Alert
	Result  *Result
	History []history.Entry
	Theme   theme.Theme
	Copied  bool
}

// CanExport reports whether the export action is enabled.
func (s State) CanExport() bool { return len(s.History) > 0 }

// Widget maps intents to state transitions. All transitions except the
// network part of shorten run synchronously.
type Widget struct {
	svc   ShortenService
	theme *theme.State

	copyText  func(string) error
	openURL   func(string) error
	writeFile func(string, []byte) error
}

func NewWidget(svc ShortenService, th *theme.State) *Widget {
	return &Widget{
		svc:       svc,
		theme:     th,
		copyText:  clipboard.Copy,
		openURL:   utils.OpenBrowser,
		writeFile: writeExport,
	}
}

// baseProvider is implemented by services that resolve path-only input
// against a base URL.
type baseProvider interface {
	Base() *url.URL
}

func (w *Widget) base() *url.URL {
	if b, ok := w.svc.(baseProvider); ok {
		return b.Base()
	}
	return nil
}

// Service returns the backing service.
func (w *Widget) Service() ShortenService { return w.svc }

// Init builds the initial state: persisted theme, fresh history, default provider.
func (w *Widget) Init(provider shorten.ProviderID) State {
	st := State{Provider: provider, Theme: theme.Default}
	if w.theme != nil {
		st.Theme = w.theme.Load()
		theme.Apply(st.Theme)
	}
	w.reload(&st)
	return st
}

// BeginShorten validates the input and marks the widget busy. The
// returned state carries the "Contacting" alert; the caller then runs
// RunShorten and applies the outcome with FinishShorten.
func (w *Widget) BeginShorten(st State) (State, error) {
	if st.Busy {
		return st, ErrBusy
	}
	st = resetOutput(st)
	if _, err := source.NormalizeWithBase(st.Input, w.base()); err != nil {
		st.Alert = Alert{Kind: AlertError, Text: errorText(err)}
		return st, err
	}
	st.Busy = true
	st.Alert = Alert{Kind: AlertInfo, Text: fmt.Sprintf("Contacting %s…", st.Provider.Label())}
	return st, nil
}

// RunShorten performs the blocking part of a shorten. It is safe to call
// off the UI goroutine.
func (w *Widget) RunShorten(ctx context.Context, st State) (Result, error) {
	return w.svc.Shorten(ctx, st.Input, st.Provider, st.Slug)
}

// FinishShorten applies the outcome of RunShorten.
func (w *Widget) FinishShorten(st State, res Result, err error) State {
	st.Busy = false
	if err != nil {
		st.Result = nil
		st.Alert = Alert{Kind: AlertError, Text: errorText(err)}
		return st
	}
	st.Result = &res
	st.Slug = ""
	if res.Warning != "" {
		st.Alert = Alert{Kind: AlertWarn, Text: res.Warning}
	} else {
		st.Alert = Alert{}
	}
	w.reload(&st)
	return st
}

// Dispatch runs a command to completion. Shorten blocks on the network.
func (w *Widget) Dispatch(ctx context.Context, st State, cmd Command) (State, error) {
	switch cmd.Intent {
	case IntentShorten:
		next, err := w.BeginShorten(st)
		if err != nil {
			return next, err
		}
		res, err := w.RunShorten(ctx, next)
		return w.FinishShorten(next, res, err), err
	case IntentReset:
		st = resetOutput(st)
		st.Input = ""
		st.Slug = ""
		return st, nil
	case IntentCopy:
		return w.copy(st, cmd.Target)
	case IntentOpen:
		return w.open(st, cmd.Target)
	case IntentExport:
		return w.export(st, cmd.Path)
	case IntentClear:
		err := w.svc.ClearHistory()
		w.reload(&st)
		if err != nil {
			st.Alert = Alert{Kind: AlertError, Text: errorText(err)}
		}
		return st, err
	case IntentDelete:
		err := w.svc.RemoveHistory(cmd.Index)
		w.reload(&st)
		if err != nil {
			st.Alert = Alert{Kind: AlertError, Text: errorText(err)}
		}
		return st, err
	case IntentTheme:
		if w.theme != nil {
			st.Theme = w.theme.Toggle()
		} else {
			st.Theme = st.Theme.Toggled()
		}
		theme.Apply(st.Theme)
		return st, nil
	}
	return st, fmt.Errorf("unknown intent %v", cmd.Intent)
}

// Reload refreshes the history snapshot from storage.
func (w *Widget) Reload(st State) State {
	w.reload(&st)
	return st
}

func (w *Widget) reload(st *State) {
	entries, err := w.svc.History()
	if err != nil {
		utils.Debug("widget: history reload failed: %v", err)
		return
	}
	st.History = entries
}

// link picks the URL a copy or open acts on.
func link(st State, target string) string {
	if target != "" {
		return target
	}
	if st.Result != nil {
		return st.Result.ShortURL
	}
	return ""
}

// copy failures are swallowed; the confirmation simply does not appear.
func (w *Widget) copy(st State, target string) (State, error) {
	text := link(st, target)
	if text == "" {
		return st, nil
	}
	if err := w.copyText(text); err != nil {
		utils.Debug("widget: copy failed: %v", err)
		return st, nil
	}
	if target != "" {
		st.Alert = Alert{Kind: AlertOK, Text: "Copied!"}
		return st, nil
	}
	st.Copied = true
	return st, nil
}

func (w *Widget) open(st State, target string) (State, error) {
	text := link(st, target)
	if text == "" {
		return st, nil
	}
	if err := w.openURL(text); err != nil {
		st.Alert = Alert{Kind: AlertError, Text: errorText(err)}
		return st, err
	}
	return st, nil
}

func (w *Widget) export(st State, path string) (State, error) {
	data, err := w.svc.ExportCSV()
	if err != nil {
		st.Alert = Alert{Kind: AlertError, Text: errorText(err)}
		return st, err
	}
	if len(data) == 0 {
		st.Alert = Alert{Kind: AlertWarn, Text: "No history to export."}
		return st, nil
	}
	if path == "" {
		path = history.ExportFileName
	}
	if err := w.writeFile(path, data); err != nil {
		st.Alert = Alert{Kind: AlertError, Text: errorText(err)}
		return st, err
	}
	st.Alert = Alert{Kind: AlertOK, Text: "Exported to " + path}
	return st, nil
}

func writeExport(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func resetOutput(st State) State {
	st.Alert = Alert{}
	st.Result = nil
	st.Copied = false
	return st
}

func errorText(err error) string {
	var ne *source.NormalizeError
	if errors.As(err, &ne) {
		return "Please enter a valid URL (include https://)."
	}
	return err.Error()
}
