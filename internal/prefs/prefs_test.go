package prefs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/staffdir/internal/store"
)

func newTestPrefs(t *testing.T) (*Prefs, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st), st
}

func TestDarkMode_DefaultsToDisabled(t *testing.T) {
	p, _ := newTestPrefs(t)
	on, err := p.DarkMode(context.Background())
	require.NoError(t, err)
	assert.False(t, on)
}

func TestSetDarkMode_StoresReferenceValues(t *testing.T) {
	p, st := newTestPrefs(t)
	ctx := context.Background()

	require.NoError(t, p.SetDarkMode(ctx, true))
	entry, err := st.Get(ctx, DarkModeKey)
	require.NoError(t, err)
	assert.Equal(t, "enabled", entry.Value)

	on, err := p.DarkMode(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, p.SetDarkMode(ctx, false))
	entry, err = st.Get(ctx, DarkModeKey)
	require.NoError(t, err)
	assert.Equal(t, "disabled", entry.Value)
}

func TestDarkMode_UnknownValueIsDisabled(t *testing.T) {
	p, st := newTestPrefs(t)
	ctx := context.Background()

	for _, v := range []string{"true", "Enabled", "1", ""} {
		require.NoError(t, st.Put(ctx, DarkModeKey, v))
		on, err := p.DarkMode(ctx)
		require.NoError(t, err)
		assert.False(t, on, "value %q", v)
	}
}

func TestToggleDarkMode(t *testing.T) {
	p, _ := newTestPrefs(t)
	ctx := context.Background()

	on, err := p.ToggleDarkMode(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = p.ToggleDarkMode(ctx)
	require.NoError(t, err)
	assert.False(t, on)
}

type brokenKV struct{}

func (brokenKV) Get(context.Context, string) (store.Entry, error) {
	return store.Entry{}, errors.New("locked")
}
func (brokenKV) Put(context.Context, string, string) error { return errors.New("locked") }

func TestDarkMode_StoreErrors(t *testing.T) {
	p := New(brokenKV{})
	ctx := context.Background()

	_, err := p.DarkMode(ctx)
	assert.ErrorContains(t, err, "read dark mode")
	assert.ErrorContains(t, p.SetDarkMode(ctx, true), "write dark mode")
}
