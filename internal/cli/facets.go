package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/staffdir/internal/filter"
	"github.com/roach88/staffdir/internal/roster"
)

// FacetsOptions holds flags for the facets command.
type FacetsOptions struct {
	*RootOptions
	Refresh bool
}

// NewFacetsCommand creates the facets command.
func NewFacetsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FacetsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "facets [rank|branch|section|sector]",
		Short: "Show the distinct values of each facet",
		Long: `Show the distinct values of the rank, branch, section and sector
fields in first-seen order. Name a facet to show only that one.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFacets(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "fetch the data resource even if the cache is fresh")

	return cmd
}

func runFacets(opts *FacetsOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	facets := roster.Facets
	if len(args) == 1 {
		facet, err := roster.ParseFacet(args[0])
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		facets = []roster.Facet{facet}
	}

	a, snap, err := openLoaded(cmd.Context(), opts.RootOptions, f, opts.Refresh)
	if err != nil {
		return err
	}
	defer a.Close()

	values := make(filter.FacetValues, len(facets))
	for _, facet := range facets {
		values[facet] = filter.DistinctValues(snap, facet)
	}

	if f.JSON() {
		return f.Success(values)
	}
	for _, facet := range facets {
		fmt.Fprintf(f.Writer, "%s:\n", facet)
		for _, v := range values[facet] {
			fmt.Fprintf(f.Writer, "  - %s\n", orDash(v))
		}
	}
	return nil
}
