package cmd

import (
	"fmt"
	"net/http"
	"net/url"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/snip-cli/snip/internal/config"
	"github.com/snip-cli/snip/internal/core"
	"github.com/snip-cli/snip/internal/history"
	"github.com/snip-cli/snip/internal/shorten"
	"github.com/snip-cli/snip/internal/storage"
	"github.com/snip-cli/snip/internal/theme"
	"github.com/snip-cli/snip/internal/tui"
	"github.com/snip-cli/snip/internal/utils"
)

// Version information - set via ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// providerEndpoints overrides provider endpoints; nil in production
var providerEndpoints map[shorten.ProviderID]string

// providerClient overrides the HTTP client used for providers
var providerClient *http.Client

// appState is everything a command needs to talk to storage and providers.
type appState struct {
	settings   *config.Settings
	db         *storage.SQLiteStore
	store      *storage.Fallback
	dispatcher *shorten.Dispatcher
	local      *shorten.LocalProvider
	history    *history.Store
	theme      *theme.State
	service    *core.LocalShortenService
}

func (a *appState) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			utils.Debug("Error closing database: %v", err)
		}
	}
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "snip [url]...",
	Short: "A terminal URL shortener",
	Long: `snip shortens links with TinyURL, CleanURI, shrtco.de, is.gd or a local
slug table, and keeps a history of everything it produced.

Without arguments it opens the interactive widget.`,
	Version:       Version,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := initializeGlobalState()
		if err != nil {
			return err
		}
		defer app.Close()

		if len(args) > 0 {
			opts, err := shortenOptionsFromFlags(cmd, app.settings)
			if err != nil {
				return err
			}
			return runShorten(cmd, app.service, args, opts)
		}

		provider, err := shorten.ParseProviderID(app.settings.General.DefaultProvider)
		if err != nil {
			return err
		}
		return startTUI(core.NewWidget(app.service, app.theme), tui.Options{
			Providers:     app.dispatcher.Providers(),
			Provider:      provider,
			AlertTimeout:  app.settings.General.AlertTimeout,
			CopyOnSuccess: app.settings.General.CopyOnSuccess,
			Prefill:       app.settings.General.ClipboardPrefill,
			ExportPath:    history.ExportFileName,
			Version:       Version,
		})
	},
}

// startTUI initializes and runs the TUI program
func startTUI(w *core.Widget, opts tui.Options) error {
	m := tui.NewRootModel(w, opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	defer utils.CloseDebug()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	addShortenFlags(rootCmd)
	rootCmd.SetVersionTemplate("snip version {{.Version}}\n")
}

// initializeGlobalState sets up directories, logging, settings and storage
func initializeGlobalState() (*appState, error) {
	stateDir := config.GetStateDir()
	logsDir := config.GetLogsDir()

	// Ensure directories exist
	_ = os.MkdirAll(stateDir, 0o755)
	_ = os.MkdirAll(logsDir, 0o755)

	// Config logging
	utils.ConfigureDebug(logsDir)

	settings, err := config.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	if err := utils.SetLevel(settings.General.LogLevel); err != nil {
		utils.Debug("Ignoring log level %q: %v", settings.General.LogLevel, err)
	}

	// Clean up old logs
	utils.CleanupLogs(settings.General.LogRetentionCount)

	return newAppState(settings, config.GetDBPath())
}

// newAppState wires storage, providers and services for settings.
func newAppState(settings *config.Settings, dbPath string) (*appState, error) {
	db := storage.NewSQLiteStore(dbPath)
	kv := storage.NewFallback(db)

	local, err := shorten.NewLocalProvider(shorten.NewSlugStore(kv), shorten.LocalConfig{
		BaseURL:   settings.Local.BaseURL,
		Style:     settings.Local.SlugStyle,
		Length:    settings.Local.SlugLength,
		MaxLength: settings.Local.MaxSlugLength,
	})
	if err != nil {
		return nil, err
	}

	dispatcher := shorten.NewDispatcher(shorten.Config{
		Client:    providerClient,
		Timeout:   settings.Network.RequestTimeout,
		UserAgent: settings.Network.UserAgent,
		Version:   Version,
		ProxyURL:  settings.Network.ProxyURL,
		Endpoints: providerEndpoints,
		Local:     local,
	})

	hist := history.NewStore(kv, settings.General.HistoryCapacity)

	// Path-only inputs resolve against the local base
	base, _ := url.Parse(settings.Local.BaseURL)

	return &appState{
		settings:   settings,
		db:         db,
		store:      kv,
		dispatcher: dispatcher,
		local:      local,
		history:    hist,
		theme:      theme.NewState(kv),
		service:    core.NewLocalShortenService(dispatcher, hist, local, base),
	}, nil
}
