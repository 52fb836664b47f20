package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snip-cli/snip/internal/config"
	"github.com/snip-cli/snip/internal/shorten"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the available shortening providers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.LoadSettings()
		if err != nil {
			settings = config.DefaultSettings()
		}

		for _, id := range shorten.AllProviders() {
			kind := "remote"
			if !id.IsRemote() {
				kind = "local"
			}
			marker := " "
			if string(id) == settings.General.DefaultProvider {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %-8s %-10s %s\n", marker, id, id.Label(), kind)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
