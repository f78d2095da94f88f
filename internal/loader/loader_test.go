package loader

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/staffdir/internal/cache"
	"github.com/roach88/staffdir/internal/metrics"
	"github.com/roach88/staffdir/internal/roster"
	"github.com/roach88/staffdir/internal/store"
	"github.com/roach88/staffdir/internal/testutil"
)

// fakeSource serves fixed bytes and counts fetches. If gate is set, Fetch
// blocks until it is closed.
type fakeSource struct {
	data    []byte
	err     error
	calls   atomic.Int32
	gate    chan struct{}
	started chan struct{}
	once    sync.Once
}

func newFakeSource(t *testing.T, snap roster.Snapshot) *fakeSource {
	t.Helper()
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	return &fakeSource{data: data}
}

func (s *fakeSource) Fetch(ctx context.Context) ([]byte, error) {
	s.calls.Add(1)
	if s.started != nil {
		s.once.Do(func() { close(s.started) })
	}
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

func (s *fakeSource) String() string { return "fake" }

func newTestCache(t *testing.T) (*cache.Cache, *testutil.FakeClock) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	clk := testutil.NewFakeClock()
	return cache.New(st, cache.WithClock(clk)), clk
}

func TestLoad_CacheHitSkipsFetch(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	require.NoError(t, c.Write(ctx, testutil.DirectorySnapshot()))

	src := newFakeSource(t, testutil.ScenarioSnapshot())
	state := roster.NewState()
	ld := New(src, c, state)

	snap, err := ld.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(0), src.calls.Load(), "cache hit must not fetch")
	assert.Equal(t, testutil.DirectorySnapshot(), snap)
	assert.Equal(t, testutil.DirectorySnapshot(), state.Snapshot())
}

func TestLoad_MissFetchesAndRefreshesCache(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	src := newFakeSource(t, testutil.ScenarioSnapshot())
	state := roster.NewState()
	ld := New(src, c, state)

	snap, err := ld.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, testutil.ScenarioSnapshot(), snap)
	assert.Equal(t, 2, state.Len())

	res := c.Read(ctx)
	require.True(t, res.Hit())
	assert.Equal(t, testutil.ScenarioSnapshot(), res.Snapshot)

	// Second load is served from the cache.
	_, err = ld.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestLoad_ExpiredCacheFetches(t *testing.T) {
	ctx := context.Background()
	c, clk := newTestCache(t)
	require.NoError(t, c.Write(ctx, testutil.DirectorySnapshot()))
	clk.Advance(cache.DefaultTTL)

	src := newFakeSource(t, testutil.ScenarioSnapshot())
	ld := New(src, c, roster.NewState())

	snap, err := ld.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, testutil.ScenarioSnapshot(), snap)
}

func TestLoad_NilCacheAlwaysFetches(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(t, testutil.ScenarioSnapshot())
	ld := New(src, nil, roster.NewState())

	for i := 0; i < 2; i++ {
		_, err := ld.Load(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestLoad_FetchFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	boom := errors.New("connection refused")
	src := &fakeSource{err: boom}

	state := roster.NewState()
	ld := New(src, c, state)

	_, err := ld.Load(ctx)
	require.Error(t, err)
	assert.True(t, IsFetchError(err))
	assert.False(t, IsParseError(err))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, state.Len(), "state stays empty at startup")

	// A previously published snapshot survives a failed reload.
	state.Replace(testutil.ScenarioSnapshot())
	_, err = ld.Reload(ctx)
	require.Error(t, err)
	assert.Equal(t, testutil.ScenarioSnapshot(), state.Snapshot())

	// Nothing was cached.
	assert.Equal(t, cache.StatusAbsent, c.Read(ctx).Status)
}

func TestLoad_ParseFailure(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `<html>`},
		{"object", `{"ConsultantID":1}`},
		{"duplicate ids", `[{"ConsultantID":1,"Name":"A"},{"ConsultantID":1,"Name":"B"}]`},
		{"empty name", `[{"ConsultantID":1,"Name":""}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := roster.NewState()
			ld := New(&fakeSource{data: []byte(tt.data)}, nil, state)

			_, err := ld.Load(context.Background())
			require.Error(t, err)
			assert.True(t, IsParseError(err))

			var le *Error
			require.ErrorAs(t, err, &le)
			assert.Equal(t, StageParse, le.Stage)
			assert.Equal(t, "fake", le.Source)
			assert.Equal(t, 0, state.Len())
		})
	}
}

type stubCache struct {
	res      cache.Result
	writeErr error
	writes   int
}

func (c *stubCache) Read(context.Context) cache.Result { return c.res }

func (c *stubCache) Write(context.Context, roster.Snapshot) error {
	c.writes++
	return c.writeErr
}

func TestLoad_CacheWriteFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := &stubCache{res: cache.Result{Status: cache.StatusMalformed, Err: errors.New("bad json")}, writeErr: errors.New("disk full")}
	src := newFakeSource(t, testutil.ScenarioSnapshot())
	state := roster.NewState()
	ld := New(src, c, state, WithLogger(zap.New(core)))

	snap, err := ld.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap, 2)
	assert.Equal(t, 1, c.writes)
	assert.Equal(t, 2, state.Len())

	miss := logs.FilterMessage("cache miss, fetching employees").All()
	require.Len(t, miss, 1)
	assert.Equal(t, "malformed", miss[0].ContextMap()["status"])

	assert.Equal(t, 1, logs.FilterMessage("cache write failed").FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestLoad_ConcurrentCallsShareOneFetch(t *testing.T) {
	c, _ := newTestCache(t)
	src := newFakeSource(t, testutil.DirectorySnapshot())
	src.gate = make(chan struct{})
	src.started = make(chan struct{})
	state := roster.NewState()
	ld := New(src, c, state)

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := ld.Load(context.Background())
			if err == nil && len(snap) != 4 {
				err = errors.New("short snapshot")
			}
			errs <- err
		}()
	}

	select {
	case <-src.started:
	case <-time.After(5 * time.Second):
		t.Fatal("fetch never started")
	}
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	// Late callers land on the refreshed cache, never a second fetch.
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, 4, state.Len())
}

func TestReload_BypassesCache(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	require.NoError(t, c.Write(ctx, testutil.DirectorySnapshot()))

	src := newFakeSource(t, testutil.ScenarioSnapshot())
	state := roster.NewState()
	ld := New(src, c, state)

	snap, err := ld.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, testutil.ScenarioSnapshot(), snap)
	assert.Equal(t, testutil.ScenarioSnapshot(), c.Read(ctx).Snapshot)
}

// gatedCache returns res from Read once release is closed.
type gatedCache struct {
	stubCache
	reading chan struct{}
	release chan struct{}
}

func (c *gatedCache) Read(ctx context.Context) cache.Result {
	close(c.reading)
	<-c.release
	return c.res
}

func TestLoad_StaleCacheReadDoesNotOverwriteReload(t *testing.T) {
	old := roster.Snapshot{{ConsultantID: 1, Name: "Old"}}
	fresh := roster.Snapshot{{ConsultantID: 2, Name: "Fresh"}}
	c := &gatedCache{
		stubCache: stubCache{res: cache.Result{Status: cache.StatusValid, Snapshot: old}},
		reading:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	src := newFakeSource(t, fresh)
	state := roster.NewState()
	ld := New(src, c, state)

	loadDone := make(chan error, 1)
	go func() {
		_, err := ld.Load(context.Background())
		loadDone <- err
	}()
	select {
	case <-c.reading:
	case <-time.After(5 * time.Second):
		t.Fatal("load never read the cache")
	}

	reloadDone := make(chan error, 1)
	go func() {
		_, err := ld.Reload(context.Background())
		reloadDone <- err
	}()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), src.calls.Load(), "reload must wait for the in-flight load")

	close(c.release)
	require.NoError(t, <-loadDone)
	require.NoError(t, <-reloadDone)

	assert.Equal(t, fresh, state.Snapshot())
	assert.Equal(t, int32(1), src.calls.Load())
}

type recordingMetrics struct {
	metrics.NoOp
	mu      sync.Mutex
	origins []string
	sizes   []int
}

func (m *recordingMetrics) Load(origin string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		origin += ":error"
	}
	m.origins = append(m.origins, origin)
}

func (m *recordingMetrics) SnapshotSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sizes = append(m.sizes, n)
}

func TestLoad_ReportsMetrics(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	m := &recordingMetrics{}
	src := newFakeSource(t, testutil.ScenarioSnapshot())
	ld := New(src, c, roster.NewState(), WithMetrics(m))

	_, err := ld.Load(ctx)
	require.NoError(t, err)
	_, err = ld.Load(ctx)
	require.NoError(t, err)
	src.err = errors.New("offline")
	_, err = ld.Reload(ctx)
	require.Error(t, err)

	assert.Equal(t, []string{OriginRemote, OriginCache, OriginRemote + ":error"}, m.origins)
	assert.Equal(t, []int{2, 2}, m.sizes)
}
