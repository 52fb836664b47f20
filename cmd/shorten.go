package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snip-cli/snip/internal/clipboard"
	"github.com/snip-cli/snip/internal/config"
	"github.com/snip-cli/snip/internal/core"
	"github.com/snip-cli/snip/internal/shorten"
	"github.com/snip-cli/snip/internal/source"
	"github.com/snip-cli/snip/internal/utils"
)

// shortenOptions are the per-invocation choices shared by `snip <url>`
// and `snip shorten`.
type shortenOptions struct {
	provider shorten.ProviderID
	slug     string
	copy     bool
	open     bool
	batch    string
}

var shortenCmd = &cobra.Command{
	Use:     "shorten [url]...",
	Aliases: []string{"s", "add"},
	Short:   "Shorten one or more URLs",
	Long: `Shorten one or more URLs and record them in history.

URLs may be given as arguments, comma separated, or read from a batch
file (one per line, # starts a comment). With --remote the request is
sent to a running 'snip serve' instead of being handled in-process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		remote, _ := cmd.Flags().GetBool("remote")

		var (
			svc      core.ShortenService
			settings *config.Settings
		)
		if remote {
			baseURL, token, err := resolveAPIConnection(true)
			if err != nil {
				return err
			}
			s, err := config.LoadSettings()
			if err != nil {
				s = config.DefaultSettings()
			}
			settings = s
			svc = core.NewRemoteShortenService(baseURL, token)
		} else {
			app, err := initializeGlobalState()
			if err != nil {
				return err
			}
			defer app.Close()
			settings = app.settings
			svc = app.service
		}

		opts, err := shortenOptionsFromFlags(cmd, settings)
		if err != nil {
			return err
		}
		return runShorten(cmd, svc, args, opts)
	},
}

func addShortenFlags(c *cobra.Command) {
	c.Flags().StringP("provider", "p", "", "Provider: tinyurl, cleanuri, shrtco, isgd or local (default from settings)")
	c.Flags().String("slug", "", "Custom slug for the local provider")
	c.Flags().BoolP("copy", "c", false, "Copy the short URL to the clipboard")
	c.Flags().BoolP("open", "o", false, "Open the short URL in the browser")
	c.Flags().StringP("batch", "b", "", "File containing URLs to shorten (one per line)")
}

func shortenOptionsFromFlags(cmd *cobra.Command, settings *config.Settings) (shortenOptions, error) {
	name, _ := cmd.Flags().GetString("provider")
	if name == "" {
		name = settings.General.DefaultProvider
	}
	provider, err := shorten.ParseProviderID(name)
	if err != nil {
		return shortenOptions{}, err
	}

	opts := shortenOptions{provider: provider}
	opts.slug, _ = cmd.Flags().GetString("slug")
	opts.copy, _ = cmd.Flags().GetBool("copy")
	opts.open, _ = cmd.Flags().GetBool("open")
	opts.batch, _ = cmd.Flags().GetString("batch")
	if settings.General.CopyOnSuccess {
		opts.copy = true
	}

	if opts.slug != "" && provider != shorten.Local {
		return shortenOptions{}, fmt.Errorf("--slug only applies to the local provider")
	}
	return opts, nil
}

// runShorten shortens every URL in args and the batch file, printing one
// short URL per line. It fails if any URL failed.
func runShorten(cmd *cobra.Command, svc core.ShortenService, args []string, opts shortenOptions) error {
	urls := source.SplitArgs(args)
	if opts.batch != "" {
		fileURLs, err := readURLsFromFile(opts.batch)
		if err != nil {
			return fmt.Errorf("reading batch file: %w", err)
		}
		urls = append(urls, fileURLs...)
	}

	if len(urls) == 0 {
		return cmd.Help()
	}
	if opts.slug != "" && len(urls) > 1 {
		return fmt.Errorf("--slug needs exactly one URL, got %d", len(urls))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	var failed int
	var last string
	for _, raw := range urls {
		res, err := svc.Shorten(ctx, raw, opts.provider, opts.slug)
		if err != nil {
			failed++
			fmt.Fprintf(errOut, "Error shortening %s: %s\n", raw, describeError(err))
			continue
		}
		fmt.Fprintln(out, res.ShortURL)
		if res.Warning != "" {
			fmt.Fprintf(errOut, "Warning: %s\n", res.Warning)
		}
		last = res.ShortURL
	}

	if last != "" && opts.copy {
		if err := clipboard.Copy(last); err != nil {
			fmt.Fprintf(errOut, "Warning: %v\n", err)
		}
	}
	if last != "" && opts.open {
		if err := utils.OpenBrowser(last); err != nil {
			fmt.Fprintf(errOut, "Warning: %v\n", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d URLs failed", failed, len(urls))
	}
	return nil
}

// describeError turns service errors into the messages the widget shows.
func describeError(err error) string {
	var ne *source.NormalizeError
	if errors.As(err, &ne) {
		return "Please enter a valid URL (include https://)."
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return err.Error()
}

func init() {
	rootCmd.AddCommand(shortenCmd)
	addShortenFlags(shortenCmd)
	shortenCmd.Flags().Bool("remote", false, "Send requests to a running 'snip serve'")
}
