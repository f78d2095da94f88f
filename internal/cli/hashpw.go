package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/staffdir/internal/auth"
)

// HashPasswordOptions holds flags for the hash-password command.
type HashPasswordOptions struct {
	*RootOptions
	Cost int
}

// NewHashPasswordCommand creates the hash-password command.
func NewHashPasswordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HashPasswordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for auth.users",
		Long: `Print a bcrypt hash of the password for use in the auth.users
section of the config file. Without an argument the password is read
from the first line of stdin.

Examples:
  staffdir hash-password s3cret
  echo s3cret | staffdir hash-password`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHashPassword(opts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Cost, "cost", bcrypt.DefaultCost, "bcrypt cost")

	return cmd
}

func runHashPassword(opts *HashPasswordOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	var password string
	if len(args) == 1 {
		password = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return f.Fail(ExitCommandError, ErrCodeGeneric, "no password given", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "password is empty", nil)
	}

	hash, err := auth.HashPassword(password, opts.Cost)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "hash password failed", err)
	}
	if f.JSON() {
		return f.Success(map[string]string{"hash": hash})
	}
	fmt.Fprintln(f.Writer, hash)
	return nil
}
