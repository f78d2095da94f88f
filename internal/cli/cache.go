package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/staffdir/internal/cache"
	"github.com/roach88/staffdir/internal/store"
)

// CacheStatusResult is the JSON payload of "cache status".
type CacheStatusResult struct {
	Path     string     `json:"path"`
	Status   string     `json:"status"`
	Records  int        `json:"records"`
	StoredAt *time.Time `json:"stored_at,omitempty"`
	Age      string     `json:"age,omitempty"`
	TTL      string     `json:"ttl"`
	Reason   string     `json:"reason,omitempty"`
}

// NewCacheCommand creates the cache command group.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the snapshot cache",
	}
	cmd.AddCommand(newCacheStatusCommand(rootOpts))
	cmd.AddCommand(newCacheClearCommand(rootOpts))
	return cmd
}

func newCacheStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the cached snapshot is usable",
		Long: `Report the state of the cached snapshot: absent, valid, expired
or malformed, with its age when one is stored.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheStatus(opts, cmd)
		},
	}
}

func newCacheClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "clear",
		Short:         "Remove the cached snapshot",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheClear(opts, cmd)
		},
	}
}

func openCache(opts *RootOptions, f *OutputFormatter) (*store.Store, *cache.Cache, error) {
	if err := opts.prepare(f); err != nil {
		return nil, nil, err
	}
	st, err := store.Open(opts.Config.Cache.Path)
	if err != nil {
		return nil, nil, f.Fail(ExitFailure, ErrCodeGeneric, "cannot open cache", err)
	}
	c := cache.New(st, cache.WithTTL(opts.Config.Cache.TTL), cache.WithLogger(opts.Logger))
	return st, c, nil
}

func runCacheStatus(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	st, c, err := openCache(opts, f)
	if err != nil {
		return err
	}
	defer st.Close()

	res := c.Read(cmd.Context())
	out := CacheStatusResult{
		Path:    opts.Config.Cache.Path,
		Status:  res.Status.String(),
		Records: len(res.Snapshot),
		TTL:     c.TTL().String(),
	}
	if res.Status == cache.StatusValid || res.Status == cache.StatusExpired {
		at := res.StoredAt
		out.StoredAt = &at
		out.Age = res.Age.Round(time.Second).String()
	}
	if res.Err != nil {
		out.Reason = res.Err.Error()
	}

	if f.JSON() {
		return f.Success(out)
	}
	w := f.Writer
	fmt.Fprintf(w, "Cache:   %s\n", out.Path)
	fmt.Fprintf(w, "Status:  %s\n", out.Status)
	if out.StoredAt != nil {
		fmt.Fprintf(w, "Stored:  %s (%s ago, ttl %s)\n", out.StoredAt.Format(time.RFC3339), out.Age, out.TTL)
	}
	if res.Hit() {
		fmt.Fprintf(w, "Records: %d\n", out.Records)
	}
	if out.Reason != "" {
		fmt.Fprintf(w, "Reason:  %s\n", out.Reason)
	}
	return nil
}

func runCacheClear(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	st, c, err := openCache(opts, f)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := c.Clear(cmd.Context()); err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneric, "clear cache failed", err)
	}
	if f.JSON() {
		return f.Success(map[string]string{"path": opts.Config.Cache.Path})
	}
	fmt.Fprintf(f.Writer, "✓ Cache cleared (%s)\n", opts.Config.Cache.Path)
	return nil
}
