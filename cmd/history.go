package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/snip-cli/snip/internal/core"
	"github.com/snip-cli/snip/internal/history"
	"github.com/snip-cli/snip/internal/utils"
)

// openService returns the in-process service, or a client for the running
// server when --remote is set. The returned func releases resources.
func openService(cmd *cobra.Command) (core.ShortenService, func(), error) {
	if remote, _ := cmd.Flags().GetBool("remote"); remote {
		baseURL, token, err := resolveAPIConnection(true)
		if err != nil {
			return nil, nil, err
		}
		return core.NewRemoteShortenService(baseURL, token), func() {}, nil
	}
	app, err := initializeGlobalState()
	if err != nil {
		return nil, nil, err
	}
	return app.service, app.Close, nil
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List and manage shortened links",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyLsCmd.RunE(cmd, args)
	},
}

var historyLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"l"},
	Short:   "List history, newest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, done, err := openService(cmd)
		if err != nil {
			return err
		}
		defer done()

		entries, err := svc.History()
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			if entries == nil {
				entries = []history.Entry{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No links yet.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderHistoryTable(entries))
		return nil
	},
}

// renderHistoryTable lays entries out with their index for `history rm`.
func renderHistoryTable(entries []history.Entry) string {
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(i),
			e.Timestamp.Local().Format("2006-01-02 15:04"),
			e.Provider.Label(),
			utils.Truncate(e.LongURL, 50),
			e.ShortURL,
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Time", "Provider", "Original", "Short URL").
		Rows(rows...).
		String()
}

var historyRmCmd = &cobra.Command{
	Use:     "rm <index>",
	Aliases: []string{"delete"},
	Short:   "Remove one entry (0 is the newest)",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("index must be an integer: %q", args[0])
		}

		svc, done, err := openService(cmd)
		if err != nil {
			return err
		}
		defer done()

		entries, err := svc.History()
		if err != nil {
			return err
		}
		if index < 0 || index >= len(entries) {
			fmt.Fprintf(cmd.ErrOrStderr(), "No entry at index %d.\n", index)
			return nil
		}
		if err := svc.RemoveHistory(index); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", entries[index].ShortURL)
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, done, err := openService(cmd)
		if err != nil {
			return err
		}
		defer done()

		if err := svc.ClearHistory(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
		return nil
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Write history as CSV (default url-history.csv, - for stdout)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := history.ExportFileName
		if len(args) > 0 {
			path = args[0]
		}

		svc, done, err := openService(cmd)
		if err != nil {
			return err
		}
		defer done()

		data, err := svc.ExportCSV()
		if err != nil {
			return err
		}
		if data == nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "No history to export.")
			return nil
		}

		if path == "-" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyLsCmd, historyRmCmd, historyClearCmd, historyExportCmd)
	historyCmd.PersistentFlags().Bool("remote", false, "Use a running 'snip serve'")
	historyCmd.Flags().Bool("json", false, "Print entries as JSON")
	historyLsCmd.Flags().Bool("json", false, "Print entries as JSON")
}
