package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/staffdir/internal/cache"
	"github.com/roach88/staffdir/internal/config"
	"github.com/roach88/staffdir/internal/loader"
	"github.com/roach88/staffdir/internal/metrics"
	"github.com/roach88/staffdir/internal/render"
	"github.com/roach88/staffdir/internal/roster"
	"github.com/roach88/staffdir/internal/store"
)

// app is the component graph shared by the commands: one store backing
// the cache and preferences, and a loader publishing into one State.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	store  *store.Store
	cache  *cache.Cache
	state  *roster.State
	loader *loader.Loader
}

func openApp(cfg config.Config, logger *zap.Logger, m metrics.Collector) (*app, error) {
	st, err := store.Open(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", cfg.Cache.Path, err)
	}

	c := cache.New(st,
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithLogger(logger),
		cache.WithMetrics(m),
	)
	state := roster.NewState()
	ld := loader.New(loader.NewSource(cfg.Data.Source), c, state,
		loader.WithLogger(logger),
		loader.WithMetrics(m),
		loader.WithDebounce(cfg.UI.Debounce),
	)

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  st,
		cache:  c,
		state:  state,
		loader: ld,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// load publishes a snapshot, bypassing the cache when refresh is set.
func (a *app) load(ctx context.Context, refresh bool) (roster.Snapshot, error) {
	if refresh {
		return a.loader.Reload(ctx)
	}
	return a.loader.Load(ctx)
}

// openLoaded prepares opts, opens the app and loads the snapshot,
// reporting failures through f.
func openLoaded(ctx context.Context, opts *RootOptions, f *OutputFormatter, refresh bool) (*app, roster.Snapshot, error) {
	if err := opts.prepare(f); err != nil {
		return nil, nil, err
	}
	a, err := openApp(opts.Config, opts.Logger, nil)
	if err != nil {
		return nil, nil, f.Fail(ExitFailure, ErrCodeGeneric, "cannot open cache", err)
	}
	snap, err := a.load(ctx, refresh)
	if err != nil {
		a.Close()
		return nil, nil, f.Fail(ExitFailure, ErrCodeLoadFailed, "load employees failed", err)
	}
	return a, snap, nil
}

func renderOptions(cfg config.Config) render.Options {
	return render.Options{
		CardPhotoDir:    cfg.Render.CardPhotoDir,
		DetailPhotoDir:  cfg.Render.DetailPhotoDir,
		Logo:            cfg.Render.Logo,
		MessagingPrefix: cfg.Render.MessagingPrefix,
	}
}

func messagingPrefix(cfg config.Config) string {
	if cfg.Render.MessagingPrefix == "" {
		return render.DefaultMessagingPrefix
	}
	return cfg.Render.MessagingPrefix
}
