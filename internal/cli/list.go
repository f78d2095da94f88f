package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/staffdir/internal/filter"
	"github.com/roach88/staffdir/internal/render"
	"github.com/roach88/staffdir/internal/roster"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Criteria roster.Criteria
	Refresh  bool
}

// ListResult is the JSON payload of the list command.
type ListResult struct {
	Count     int                     `json:"count"`
	Total     int                     `json:"total"`
	Criteria  roster.Criteria         `json:"criteria"`
	Employees []roster.EmployeeRecord `json:"employees"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List employees matching the filters",
		Long: `List employees whose rank, branch, section and sector match every
filter given, and whose name contains the search text (case-insensitive).
Filters left empty match everything.

Examples:
  staffdir list
  staffdir list --rank مستشار --sector الجنوب
  staffdir list -q omar --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Criteria.Rank, "rank", "", "exact rank")
	cmd.Flags().StringVar(&opts.Criteria.Branch, "branch", "", "exact branch")
	cmd.Flags().StringVar(&opts.Criteria.Section, "section", "", "exact section")
	cmd.Flags().StringVar(&opts.Criteria.Sector, "sector", "", "exact sector")
	cmd.Flags().StringVarP(&opts.Criteria.Search, "search", "q", "", "name contains")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "fetch the data resource even if the cache is fresh")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	a, snap, err := openLoaded(cmd.Context(), opts.RootOptions, f, opts.Refresh)
	if err != nil {
		return err
	}
	defer a.Close()

	results := filter.Apply(snap, opts.Criteria)
	f.VerboseLog("%d of %d records match", len(results), len(snap))

	if f.JSON() {
		return f.Success(ListResult{
			Count:     len(results),
			Total:     len(snap),
			Criteria:  opts.Criteria,
			Employees: results,
		})
	}
	return writeList(f.Writer, results)
}

func writeList(w io.Writer, list roster.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tRANK\tBRANCH\tSECTION\tSECTOR\tSENIORITY\tPHONE")
	for _, rec := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.ConsultantID,
			rec.Name,
			rec.CurrentRankID,
			rec.BranchName,
			orDash(rec.SectionName),
			rec.SectorName,
			rec.TimeRank,
			render.DisplayPhone(rec.PhoneNumber.String()),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, render.ResultsCount(len(list)))
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
