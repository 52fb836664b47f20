package tui

import (
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snip-cli/snip/internal/core"
	"github.com/snip-cli/snip/internal/history"
	"github.com/snip-cli/snip/internal/shorten"
	"github.com/snip-cli/snip/internal/storage"
	"github.com/snip-cli/snip/internal/testutil"
	"github.com/snip-cli/snip/internal/theme"
	"github.com/snip-cli/snip/internal/tui/colors"
)

var ansiEscapeRE = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func plain(m RootModel) string {
	return ansiEscapeRE.ReplaceAllString(m.View(), "")
}

func newTestModel(t *testing.T, provider shorten.ProviderID) RootModel {
	t.Helper()
	srv := testutil.NewProviderServer(t, "https://is.gd/xyz", http.StatusOK)

	kv := storage.NewMemoryStore()
	local, err := shorten.NewLocalProvider(shorten.NewSlugStore(kv), shorten.LocalConfig{BaseURL: "http://127.0.0.1:1700/"})
	require.NoError(t, err)
	d := shorten.NewDispatcher(shorten.Config{
		Client:    srv.Client(),
		Endpoints: srv.Endpoints(),
		Local:     local,
	})
	svc := core.NewLocalShortenService(d, history.NewStore(kv, 200), local, nil)
	w := core.NewWidget(svc, theme.NewState(kv))
	t.Cleanup(func() { theme.Apply(theme.Default) })

	return NewRootModel(w, Options{
		Providers:  d.Providers(),
		Provider:   provider,
		ExportPath: filepath.Join(t.TempDir(), "url-history.csv"),
	})
}

func press(t *testing.T, m RootModel, msg tea.KeyMsg) (RootModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	rm, ok := next.(RootModel)
	require.True(t, ok)
	return rm, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// shortenURL types raw, presses enter and applies the result.
func shortenURL(t *testing.T, m RootModel, raw string) RootModel {
	t.Helper()
	m.urlInput.SetValue(raw)
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.st.Busy)
	require.NotNil(t, cmd)

	next, _ := m.Update(cmd())
	return next.(RootModel)
}

func TestView_EmptyState(t *testing.T) {
	m := newTestModel(t, shorten.TinyURL)
	view := plain(m)

	assert.Contains(t, view, "No links yet.")
	assert.Contains(t, view, "Shorten")
	assert.Contains(t, view, "TinyURL")
	assert.Contains(t, view, "is.gd")
	assert.Contains(t, view, "🌙")
	assert.NotContains(t, view, "Slug")
	assert.False(t, m.keys.Widget.Export.Enabled())
}

func TestUpdate_ShortenFlow(t *testing.T) {
	m := newTestModel(t, shorten.IsGd)
	m.urlInput.SetValue("example.com/page")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	view := plain(m)
	assert.Contains(t, view, "Working…")
	assert.Contains(t, view, "Contacting is.gd…")

	// A second trigger while busy is ignored
	m, again := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, again)

	next, _ := m.Update(cmd())
	m = next.(RootModel)

	view = plain(m)
	assert.False(t, m.st.Busy)
	assert.Contains(t, view, "https://is.gd/xyz")
	assert.Contains(t, view, "History (1)")
	assert.NotContains(t, view, "No links yet.")
	require.Len(t, m.st.History, 1)
	assert.Equal(t, "https://example.com/page", m.st.History[0].LongURL)
	assert.True(t, m.keys.Widget.Export.Enabled())
}

func TestUpdate_InvalidInputShowsAlert(t *testing.T) {
	m := newTestModel(t, shorten.IsGd)
	m.urlInput.SetValue("ftp://example.com")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.NotNil(t, cmd, "alert dismiss timer")
	assert.False(t, m.st.Busy)
	assert.Contains(t, plain(m), "Please enter a valid URL (include https://).")

	next, _ := m.Update(alertExpiredMsg{seq: m.alertSeq})
	m = next.(RootModel)
	assert.NotContains(t, plain(m), "Please enter a valid URL")
}

func TestUpdate_StaleAlertTickIgnored(t *testing.T) {
	m := newTestModel(t, shorten.IsGd)
	m.urlInput.SetValue("")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	stale := m.alertSeq
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	next, _ := m.Update(alertExpiredMsg{seq: stale})
	m = next.(RootModel)
	assert.True(t, m.st.Alert.Visible())
}

func TestUpdate_ProviderCycleShowsSlug(t *testing.T) {
	m := newTestModel(t, shorten.TinyURL)
	start := m.provider()

	for i := 0; i < len(m.providers); i++ {
		if m.provider() == shorten.Local {
			break
		}
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	}
	require.Equal(t, shorten.Local, m.provider())
	assert.Contains(t, plain(m), "Slug")

	m.slugInput.SetValue("abc123")
	m = shortenURL(t, m, "https://example.com/x")
	require.NotNil(t, m.st.Result)
	assert.Equal(t, "http://127.0.0.1:1700/?go=abc123", m.st.Result.ShortURL)
	assert.Empty(t, m.slugInput.Value())

	for m.provider() != start {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	}
	assert.NotContains(t, plain(m), "Slug")
}

func TestUpdate_ResetClearsForm(t *testing.T) {
	m := newTestModel(t, shorten.IsGd)
	m = shortenURL(t, m, "https://example.com")
	require.NotNil(t, m.st.Result)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Empty(t, m.urlInput.Value())
	assert.Nil(t, m.st.Result)
	assert.Len(t, m.st.History, 1, "reset keeps history")
}

func TestUpdate_ClearWithConfirmation(t *testing.T) {
	m := newTestModel(t, shorten.IsGd)
	m = shortenURL(t, m, "https://example.com")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlX})
	assert.Equal(t, ConfirmClearState, m.state)
	assert.Contains(t, plain(m), "Remove every saved link?")

	m, _ = press(t, m, runes("n"))
	assert.Equal(t, FormState, m.state)
	assert.Len(t, m.st.History, 1)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlX})
	m, _ = press(t, m, runes("y"))
	assert.Equal(t, FormState, m.state)
	assert.Empty(t, m.st.History)
	assert.Contains(t, plain(m), "No links yet.")
}

func TestUpdate_ClearDisabledWhenEmpty(t *testing.T) {
	m := newTestModel(t, shorten.IsGd)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlX})
	assert.Equal(t, FormState, m.state)
}

func TestUpdate_HistoryDelete(t *testing.T) {
	m := newTestModel(t, shorten.IsGd)
	m = shortenURL(t, m, "https://a.example")
	m = shortenURL(t, m, "https://b.example")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, HistoryState, m.state)

	m, _ = press(t, m, runes("d"))
	require.Len(t, m.st.History, 1)
	assert.Equal(t, "https://a.example/", m.st.History[0].LongURL)

	m, _ = press(t, m, runes("d"))
	assert.Empty(t, m.st.History)
	assert.Equal(t, FormState, m.state)
}

func TestUpdate_Export(t *testing.T) {
	m := newTestModel(t, shorten.IsGd)

	// Disabled while empty
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	assert.NoFileExists(t, m.opts.ExportPath)

	m = shortenURL(t, m, "https://example.com")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	require.FileExists(t, m.opts.ExportPath)
	assert.Contains(t, plain(m), "Exported to")

	data, err := os.ReadFile(m.opts.ExportPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `"Time","Original","Short","Provider"`))
}

func TestUpdate_ThemeToggle(t *testing.T) {
	m := newTestModel(t, shorten.IsGd)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, theme.Light, m.st.Theme)
	assert.Contains(t, plain(m), "🌞")
	assert.False(t, lipgloss.HasDarkBackground())
}

func TestUpdate_WindowResize(t *testing.T) {
	m := newTestModel(t, shorten.IsGd)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	m = next.(RootModel)
	assert.Equal(t, 140, m.width)
	assert.Contains(t, plain(m), "No links yet.")
}

func TestApplyGradient_LineCount(t *testing.T) {
	out := ApplyGradient("a\nb\nc", colors.LogoStart, colors.LogoEnd)
	assert.Equal(t, 3, len(strings.Split(out, "\n")))
}
