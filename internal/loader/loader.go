// Package loader obtains the employee snapshot, preferring a fresh cached
// copy over a fetch of the data resource, and publishes it to the shared
// roster.State.
//
// The Loader is the only writer of the State it is given. Concurrent Load
// calls share one in-flight operation, and loads and reloads are serialized
// so an older snapshot is never published over a newer one.
package loader

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/roach88/staffdir/internal/cache"
	"github.com/roach88/staffdir/internal/clock"
	"github.com/roach88/staffdir/internal/debounce"
	"github.com/roach88/staffdir/internal/metrics"
	"github.com/roach88/staffdir/internal/roster"
)

// Origin values reported to metrics and logs.
const (
	OriginCache  = "cache"
	OriginRemote = "remote"
)

// Cache is the subset of cache.Cache used by the Loader.
type Cache interface {
	Read(ctx context.Context) cache.Result
	Write(ctx context.Context, snap roster.Snapshot) error
}

// Loader loads snapshots into a roster.State.
type Loader struct {
	source  Source
	cache   Cache
	state   *roster.State
	logger  *zap.Logger
	metrics metrics.Collector
	clock   clock.Clock
	delay   time.Duration

	group singleflight.Group
	mu    sync.Mutex // held across cache read, fetch and publish
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) {
		ld.logger = l
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m metrics.Collector) Option {
	return func(ld *Loader) {
		ld.metrics = m
	}
}

// WithClock sets the clock used for load durations and watch debouncing.
func WithClock(c clock.Clock) Option {
	return func(ld *Loader) {
		ld.clock = c
	}
}

// WithDebounce sets the quiet window Watch waits for before reloading.
func WithDebounce(d time.Duration) Option {
	return func(ld *Loader) {
		ld.delay = d
	}
}

// New creates a Loader. A nil cache disables caching.
func New(src Source, c Cache, state *roster.State, opts ...Option) *Loader {
	ld := &Loader{
		source: src,
		cache:  c,
		state:  state,
		delay:  debounce.DefaultDelay,
	}
	for _, opt := range opts {
		opt(ld)
	}
	if ld.logger == nil {
		ld.logger = zap.NewNop()
	}
	ld.metrics = metrics.OrNoOp(ld.metrics)
	ld.clock = clock.OrSystem(ld.clock)
	return ld
}

// Load returns a fresh cached snapshot if there is one, and otherwise
// fetches the data resource and refreshes the cache. Either way the result
// is published to the State.
//
// On failure the State is left unchanged and a *Error is returned.
func (ld *Loader) Load(ctx context.Context) (roster.Snapshot, error) {
	v, err, _ := ld.group.Do("load", func() (any, error) {
		ld.mu.Lock()
		defer ld.mu.Unlock()
		if snap, ok := ld.fromCache(ctx); ok {
			return snap, nil
		}
		return ld.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(roster.Snapshot), nil
}

// Reload fetches the data resource without consulting the cache.
func (ld *Loader) Reload(ctx context.Context) (roster.Snapshot, error) {
	v, err, _ := ld.group.Do("reload", func() (any, error) {
		ld.mu.Lock()
		defer ld.mu.Unlock()
		return ld.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(roster.Snapshot), nil
}

func (ld *Loader) fromCache(ctx context.Context) (roster.Snapshot, bool) {
	if ld.cache == nil {
		return nil, false
	}
	start := ld.clock.Now()
	res := ld.cache.Read(ctx)
	if !res.Hit() {
		fields := []zap.Field{zap.String("status", res.Status.String())}
		if res.Err != nil {
			fields = append(fields, zap.Error(res.Err))
		}
		ld.logger.Info("cache miss, fetching employees", fields...)
		return nil, false
	}

	ld.publish(res.Snapshot)
	ld.metrics.Load(OriginCache, ld.clock.Now().Sub(start), nil)
	ld.logger.Info("employees loaded",
		zap.String("origin", OriginCache),
		zap.Int("records", len(res.Snapshot)),
		zap.Duration("age", res.Age),
	)
	return res.Snapshot, true
}

// fetch must be called with ld.mu held.
func (ld *Loader) fetch(ctx context.Context) (roster.Snapshot, error) {
	start := ld.clock.Now()
	snap, err := ld.fetchAndParse(ctx)
	ld.metrics.Load(OriginRemote, ld.clock.Now().Sub(start), err)
	if err != nil {
		ld.logger.Error("load employees failed",
			zap.String("source", ld.source.String()),
			zap.Error(err),
		)
		return nil, err
	}

	if ld.cache != nil {
		if err := ld.cache.Write(ctx, snap); err != nil {
			ld.logger.Warn("cache write failed", zap.Error(err))
		}
	}

	ld.publish(snap)
	ld.logger.Info("employees loaded",
		zap.String("origin", OriginRemote),
		zap.String("source", ld.source.String()),
		zap.Int("records", len(snap)),
	)
	return snap, nil
}

func (ld *Loader) fetchAndParse(ctx context.Context) (roster.Snapshot, error) {
	data, err := ld.source.Fetch(ctx)
	if err != nil {
		return nil, &Error{Stage: StageFetch, Source: ld.source.String(), Err: err}
	}
	snap, err := roster.ParseSnapshot(data)
	if err != nil {
		return nil, &Error{Stage: StageParse, Source: ld.source.String(), Err: err}
	}
	return snap, nil
}

func (ld *Loader) publish(snap roster.Snapshot) {
	ld.state.Replace(snap)
	ld.metrics.SnapshotSize(len(snap))
}
