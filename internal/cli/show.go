package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/staffdir/internal/render"
	"github.com/roach88/staffdir/internal/roster"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Refresh bool
}

// ShowResult is the JSON payload of the show command.
type ShowResult struct {
	Employee roster.EmployeeRecord `json:"employee"`
	Phone    string                `json:"phone"`
	Link     string                `json:"link"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one employee's details",
		Long: `Show the details of the employee with the given ConsultantID,
including the display phone number and the messaging link.

Exits with code 2 if no employee has that identifier.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "fetch the data resource even if the cache is fresh")

	return cmd
}

func runShow(opts *ShowOptions, arg string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	id, err := strconv.Atoi(arg)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("invalid employee id %q", arg), nil)
	}

	a, snap, err := openLoaded(cmd.Context(), opts.RootOptions, f, opts.Refresh)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := snap.Find(id)
	if errors.Is(err, roster.ErrNotFound) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("employee %d not found", id), nil)
	}

	result := ShowResult{
		Employee: rec,
		Phone:    render.DisplayPhone(rec.PhoneNumber.String()),
		Link:     messagingPrefix(opts.Config) + rec.PhoneNumber.String(),
	}
	if f.JSON() {
		return f.Success(result)
	}

	w := f.Writer
	fmt.Fprintln(w, rec.Name)
	fmt.Fprintf(w, "  ID:        %d\n", rec.ConsultantID)
	fmt.Fprintf(w, "  Rank:      %s\n", rec.CurrentRankID)
	fmt.Fprintf(w, "  Branch:    %s\n", rec.BranchName)
	fmt.Fprintf(w, "  Section:   %s\n", orDash(rec.SectionName))
	fmt.Fprintf(w, "  Sector:    %s\n", rec.SectorName)
	fmt.Fprintf(w, "  Seniority: %s\n", rec.TimeRank)
	fmt.Fprintf(w, "  Phone:     %s\n", result.Phone)
	fmt.Fprintf(w, "  Link:      %s\n", result.Link)
	return nil
}
