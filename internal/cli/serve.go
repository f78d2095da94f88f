package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/staffdir/internal/auth"
	"github.com/roach88/staffdir/internal/metrics"
	"github.com/roach88/staffdir/internal/prefs"
	"github.com/roach88/staffdir/internal/render"
	"github.com/roach88/staffdir/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr  string
	Watch bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the directory over HTTP",
		Long: `Serve the directory page, the details pages and the JSON API.

When auth.users is configured every page sits behind the login form;
otherwise the directory is open. Prometheus metrics are served on
/metrics. With --watch a file data source is reloaded when it changes.

Examples:
  staffdir serve
  staffdir serve --addr :9000 --watch`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "reload a file data source when it changes (overrides data.watch)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	f := newFormatter(opts.RootOptions, cmd)
	if err := opts.prepare(f); err != nil {
		return err
	}
	cfg := opts.Config
	logger := opts.Logger
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	if cmd.Flags().Changed("watch") {
		cfg.Data.Watch = opts.Watch
	}

	prom := metrics.NewPrometheus()
	a, err := openApp(cfg, logger, prom)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneric, "cannot open cache", err)
	}
	defer a.Close()

	// A failed first load serves an empty directory until a reload succeeds.
	if snap, err := a.loader.Load(ctx); err != nil {
		logger.Warn("initial load failed, serving an empty directory", zap.Error(err))
	} else {
		logger.Info("employees loaded", zap.Int("records", len(snap)))
	}

	rnd, err := render.New(renderOptions(cfg))
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneric, "build renderer", err)
	}

	srvOpts := server.Options{
		State:          a.state,
		Renderer:       rnd,
		Prefs:          prefs.New(a.store),
		SecureCookies:  cfg.Server.SecureCookies,
		Metrics:        prom,
		MetricsHandler: prom.Handler(),
		Logger:         logger,
		Debounce:       cfg.UI.Debounce,
	}
	if len(cfg.Auth.Users) > 0 {
		v, err := auth.NewStaticVerifier(cfg.Auth.Users)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeConfigInvalid, "invalid auth.users", err)
		}
		sessions, err := auth.NewSessions([]byte(cfg.Auth.SessionSecret), cfg.Auth.SessionTTL)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeConfigInvalid, "invalid auth.session_secret", err)
		}
		srvOpts.Verifier = v
		srvOpts.Sessions = sessions
		logger.Info("login gate enabled", zap.Int("users", v.Users()))
	} else {
		logger.Warn("no auth.users configured, the directory is open")
	}

	srv, err := server.New(srvOpts)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneric, "build server", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.Data.Watch {
		go func() {
			if err := a.loader.Watch(ctx); err != nil {
				logger.Warn("data watch stopped", zap.Error(err))
			}
		}()
	}

	err = srv.ListenAndServe(ctx, cfg.Server.Addr, server.Timeouts{
		Read:     cfg.Server.ReadTimeout,
		Write:    cfg.Server.WriteTimeout,
		Shutdown: cfg.Server.ShutdownTimeout,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return f.Fail(ExitFailure, ErrCodeGeneric, "server failed", err)
	}
	return nil
}
