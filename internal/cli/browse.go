package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/staffdir/internal/prefs"
	"github.com/roach88/staffdir/internal/tui"
)

// BrowseOptions holds flags for the browse command.
type BrowseOptions struct {
	*RootOptions
	Refresh bool
}

// NewBrowseCommand creates the browse command.
func NewBrowseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BrowseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the directory in the terminal",
		Long: `Open the interactive directory browser.

Type to search by name. Tab moves between the rank, branch, section and
sector filters and ctrl+n / ctrl+p step through their values. Enter
opens an employee's details, ctrl+d toggles dark mode and ctrl+r reloads
the data resource.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "fetch the data resource even if the cache is fresh")

	return cmd
}

func runBrowse(opts *BrowseOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	f := newFormatter(opts.RootOptions, cmd)
	if err := opts.prepare(f); err != nil {
		return err
	}

	// Log lines on stderr would tear the alternate screen.
	logger := zap.NewNop()
	if opts.Verbose {
		logger = opts.Logger
	}
	a, err := openApp(opts.Config, logger, nil)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneric, "cannot open cache", err)
	}
	defer a.Close()

	if _, err := a.load(ctx, opts.Refresh); err != nil {
		// The browser starts empty; ctrl+r retries.
		fmt.Fprintf(f.GetErrWriter(), "warning: %v\n", err)
	}

	err = tui.Run(ctx, tui.Options{
		State:           a.state,
		Prefs:           prefs.New(a.store),
		Loader:          a.loader,
		MessagingPrefix: messagingPrefix(opts.Config),
		Debounce:        opts.Config.UI.Debounce,
		Logger:          logger,
	})
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneric, "browser failed", err)
	}
	return nil
}
