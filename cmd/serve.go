package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/snip-cli/snip/internal/config"
	"github.com/snip-cli/snip/internal/utils"
)

// serveLockPath guards against two servers for the same user.
func serveLockPath() string {
	return filepath.Join(config.GetRuntimeDir(), "serve.lock")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local redirect and API server",
	Long: `Run the companion HTTP server.

It answers /?go=<slug> redirects for the local provider, exposes the
shortener and history over an authenticated JSON API for 'snip connect',
and can proxy CleanURI, shrtco.de and is.gd requests.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := initializeGlobalState()
		if err != nil {
			return err
		}
		defer app.Close()

		_ = os.MkdirAll(config.GetRuntimeDir(), 0o755)
		lock := flock.New(serveLockPath())
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquiring server lock: %w", err)
		}
		if !locked {
			return fmt.Errorf("snip server is already running (port %d)", readActivePort())
		}
		defer func() { _ = lock.Unlock() }()

		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")

		var ln net.Listener
		if cmd.Flags().Changed("port") {
			ln, err = net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
			if err != nil {
				return fmt.Errorf("could not bind to port %d: %w", port, err)
			}
		} else {
			port, ln = findAvailablePort(host, app.settings.Server.Port)
			if ln == nil {
				return fmt.Errorf("could not find available port near %d", app.settings.Server.Port)
			}
		}

		saveActivePort(port)
		defer removeActivePort()

		token := ensureAuthToken()
		handler := NewAPIHandler(app.service, app.local, port)
		router := newRouter(handler, token, utils.Logger())

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(cmd.OutOrStdout(), "snip server listening on http://%s\n", net.JoinHostPort(host, strconv.Itoa(port)))
		fmt.Fprintf(cmd.OutOrStdout(), "Token file: %s\n", tokenFilePath())
		return startHTTPServer(ctx, ln, router)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("port", 0, "Port to listen on (default: first free port from server.port)")
	serveCmd.Flags().String("host", "127.0.0.1", "Address to bind")
}
