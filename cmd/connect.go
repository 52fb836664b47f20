package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snip-cli/snip/internal/config"
	"github.com/snip-cli/snip/internal/core"
	"github.com/snip-cli/snip/internal/history"
	"github.com/snip-cli/snip/internal/shorten"
	"github.com/snip-cli/snip/internal/storage"
	"github.com/snip-cli/snip/internal/theme"
	"github.com/snip-cli/snip/internal/tui"
)

var connectCmd = &cobra.Command{
	Use:   "connect [host:port]",
	Short: "Drive a running snip server from the TUI",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var target string
		if len(args) > 0 {
			target = args[0]
		} else {
			// Auto-discovery from local port file
			port := readActivePort()
			if port == 0 {
				return fmt.Errorf("no active snip server found locally (usage: snip connect <host:port>)")
			}
			target = fmt.Sprintf("127.0.0.1:%d", port)
		}
		baseURL := "http://" + target

		tokenFlag, _ := cmd.Flags().GetString("token")
		token, err := connectToken(tokenFlag, target)
		if err != nil {
			return err
		}

		settings, err := config.LoadSettings()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Connecting to %s...\n", baseURL)
		service := core.NewRemoteShortenService(baseURL, token)

		// Verify connection
		if _, err := service.History(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}

		provider, err := shorten.ParseProviderID(settings.General.DefaultProvider)
		if err != nil {
			provider = shorten.TinyURL
		}

		// Theme stays local to this session; the server owns history only.
		w := core.NewWidget(service, theme.NewState(storage.NewMemoryStore()))
		return startTUI(w, tui.Options{
			Providers:     shorten.AllProviders(),
			Provider:      provider,
			AlertTimeout:  settings.General.AlertTimeout,
			CopyOnSuccess: settings.General.CopyOnSuccess,
			Prefill:       settings.General.ClipboardPrefill,
			ExportPath:    history.ExportFileName,
			Remote:        target,
			Version:       Version,
		})
	},
}

// connectToken picks the bearer token: flag, then SNIP_TOKEN, then the
// local token file for loopback targets only.
func connectToken(flag, target string) (string, error) {
	if token := strings.TrimSpace(flag); token != "" {
		return token, nil
	}
	if token := strings.TrimSpace(os.Getenv("SNIP_TOKEN")); token != "" {
		return token, nil
	}
	if isLoopback(target) {
		return ensureAuthToken(), nil
	}
	return "", fmt.Errorf("no token provided; use --token or set SNIP_TOKEN")
}

func init() {
	connectCmd.Flags().String("token", "", "Bearer token for the remote server (or set SNIP_TOKEN)")
	rootCmd.AddCommand(connectCmd)
}
