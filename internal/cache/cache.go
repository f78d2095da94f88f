// Package cache keeps one employee snapshot in a key-value store with a
// time-to-live.
//
// The stored value is a JSON envelope:
//
//	{"data": [...records...], "timestamp": <epoch milliseconds>}
//
// under the fixed key "employeesCache". An envelope is fresh while
// now - timestamp < TTL. Read never fails: every problem with the stored
// value is reported as a Status so callers can log it and fall back to a
// remote fetch.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/staffdir/internal/clock"
	"github.com/roach88/staffdir/internal/metrics"
	"github.com/roach88/staffdir/internal/roster"
	"github.com/roach88/staffdir/internal/store"
)

const (
	// Key is the store key holding the envelope.
	Key = "employeesCache"

	// DefaultTTL is the freshness window (1,800,000 ms).
	DefaultTTL = 30 * time.Minute
)

// KV is the subset of store.Store used by the cache.
type KV interface {
	Get(ctx context.Context, key string) (store.Entry, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Cache reads and writes the snapshot envelope.
type Cache struct {
	kv      KV
	ttl     time.Duration
	clock   clock.Clock
	logger  *zap.Logger
	metrics metrics.Collector
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the freshness window. Non-positive values keep the default.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock sets the clock used for envelope timestamps and age.
func WithClock(clk clock.Clock) Option {
	return func(c *Cache) {
		c.clock = clk
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m metrics.Collector) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New creates a Cache over kv.
func New(kv KV, opts ...Option) *Cache {
	c := &Cache{
		kv:  kv,
		ttl: DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.clock = clock.OrSystem(c.clock)
	c.metrics = metrics.OrNoOp(c.metrics)
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// envelope is the stored shape. Pointer fields distinguish a missing field
// from a zero value.
type envelope struct {
	Data      *roster.Snapshot `json:"data"`
	Timestamp *int64           `json:"timestamp"`
}

// Read returns the cached snapshot if one is stored, well-formed and fresh.
func (c *Cache) Read(ctx context.Context) Result {
	res := c.read(ctx)
	c.metrics.CacheRead(res.Status.String())

	fields := []zap.Field{zap.String("status", res.Status.String())}
	if res.Status == StatusValid || res.Status == StatusExpired {
		fields = append(fields, zap.Duration("age", res.Age))
	}
	if res.Err != nil {
		fields = append(fields, zap.Error(res.Err))
	}
	c.logger.Debug("cache read", fields...)
	return res
}

func (c *Cache) read(ctx context.Context) Result {
	entry, err := c.kv.Get(ctx, Key)
	if errors.Is(err, store.ErrNotFound) {
		return Result{Status: StatusAbsent}
	}
	if err != nil {
		return Result{Status: StatusAbsent, Err: err}
	}

	raw := bytes.TrimSpace([]byte(entry.Value))
	if bytes.Equal(raw, []byte("null")) {
		return Result{Status: StatusAbsent}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Result{Status: StatusMalformed, Err: fmt.Errorf("decode envelope: %w", err)}
	}
	if env.Timestamp == nil {
		return Result{Status: StatusMalformed, Err: errors.New("envelope has no timestamp")}
	}
	if env.Data == nil {
		return Result{Status: StatusMalformed, Err: errors.New("envelope has no data")}
	}
	if err := env.Data.Validate(); err != nil {
		return Result{Status: StatusMalformed, Err: err}
	}

	stored := time.UnixMilli(*env.Timestamp)
	// A timestamp ahead of the clock counts as just written.
	age := max(c.clock.Now().Sub(stored), 0)
	if age >= c.ttl {
		return Result{Status: StatusExpired, Age: age, StoredAt: stored}
	}

	return Result{Status: StatusValid, Snapshot: *env.Data, Age: age, StoredAt: stored}
}

// Write stores snap with the current time, replacing any previous envelope.
func (c *Cache) Write(ctx context.Context, snap roster.Snapshot) error {
	if snap == nil {
		snap = roster.Snapshot{}
	}
	ts := c.clock.Now().UnixMilli()
	data, err := json.Marshal(envelope{Data: &snap, Timestamp: &ts})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := c.kv.Put(ctx, Key, string(data)); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	c.logger.Debug("cache written", zap.Int("records", len(snap)))
	return nil
}

// Clear removes the stored envelope.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.kv.Delete(ctx, Key); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}
