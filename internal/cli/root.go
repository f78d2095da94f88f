package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/staffdir/internal/config"
	"github.com/roach88/staffdir/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config and Logger are set by prepare.
	Config config.Config
	Logger *zap.Logger

	prepared bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the staffdir CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "staffdir",
		Short: "staffdir - employee directory",
		Long: `Browse, filter and serve the employee directory.

The directory is loaded from a JSON data resource (a file or an http(s)
URL) and cached locally for a limited time. Records can be filtered by
rank, branch, section and sector, and searched by name.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.Logger != nil {
				_ = opts.Logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewBrowseCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewFacetsCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))
	cmd.AddCommand(NewHashPasswordCommand(opts))

	return cmd
}

// Execute runs the CLI with args and returns the process exit code.
// Errors already reported by a command are not printed a second time.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	// Flag, argument and format errors from cobra.
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitCommandError
}

// prepare loads the configuration and builds the logger once.
func (o *RootOptions) prepare(f *OutputFormatter) error {
	if o.prepared {
		return nil
	}
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfigInvalid, "invalid configuration", err)
	}

	level := cfg.Logging.Level
	if o.Verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Development: cfg.Logging.Development,
		Output:      f.GetErrWriter(),
	})
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfigInvalid, "invalid configuration", err)
	}

	o.Config, o.Logger, o.prepared = cfg, logger, true
	return nil
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
