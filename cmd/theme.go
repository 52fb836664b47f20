package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snip-cli/snip/internal/theme"
)

var themeCmd = &cobra.Command{
	Use:       "theme [toggle|light|dark]",
	Short:     "Show or change the widget theme",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"toggle", "light", "dark"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := initializeGlobalState()
		if err != nil {
			return err
		}
		defer app.Close()

		var current theme.Theme
		switch {
		case len(args) == 0:
			current = app.theme.Load()
		case args[0] == "toggle":
			current = app.theme.Toggle()
		default:
			t, err := theme.Parse(args[0])
			if err != nil {
				return err
			}
			current = app.theme.Set(t)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", current.Indicator(), current)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(themeCmd)
}
