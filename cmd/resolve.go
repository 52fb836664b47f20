package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snip-cli/snip/internal/shorten"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <slug|url>",
	Short: "Look up where a local short link points",
	Long: `Look up a local slug. The argument is either the slug itself or a
page URL carrying ?go=<slug>.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := initializeGlobalState()
		if err != nil {
			return err
		}
		defer app.Close()

		var res shorten.Resolution
		if strings.Contains(args[0], "://") || strings.Contains(args[0], "?") {
			res = app.local.Resolve(args[0])
		} else {
			res = app.local.ResolveSlug(args[0])
		}

		switch res.State {
		case shorten.Hit:
			fmt.Fprintln(cmd.OutOrStdout(), res.Target)
			return nil
		case shorten.Miss:
			return fmt.Errorf("no link found for %q", res.Slug)
		default:
			return fmt.Errorf("no %s parameter in %q", shorten.RedirectParam, args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
