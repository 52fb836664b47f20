package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snip-cli/snip/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version, optionally checking for updates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "snip version %s (built %s)\n", Version, BuildTime)

		if check, _ := cmd.Flags().GetBool("check"); !check {
			return nil
		}
		info, err := version.CheckForUpdate(cmd.Context(), Version)
		if errors.Is(err, version.ErrDevBuild) {
			fmt.Fprintln(cmd.OutOrStdout(), "Update check skipped for development builds.")
			return nil
		}
		if err != nil {
			return err
		}
		if info.UpdateAvailable {
			fmt.Fprintf(cmd.OutOrStdout(), "Update available: %s\n%s\n", info.LatestVersion, info.ReleaseURL)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "You are up to date.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("check", false, "Check GitHub for a newer release")
}
