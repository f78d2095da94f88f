// Package prefs stores user interface preferences in the key-value store.
package prefs

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/staffdir/internal/store"
)

// DarkModeKey is the store key for the dark mode preference.
const DarkModeKey = "darkMode"

// Stored values for DarkModeKey.
const (
	Enabled  = "enabled"
	Disabled = "disabled"
)

// KV is the subset of store.Store used for preferences.
type KV interface {
	Get(ctx context.Context, key string) (store.Entry, error)
	Put(ctx context.Context, key, value string) error
}

// Prefs reads and writes preferences.
type Prefs struct {
	kv KV
}

// New creates Prefs over kv.
func New(kv KV) *Prefs {
	return &Prefs{kv: kv}
}

// DarkMode reports whether dark mode is enabled. A missing entry or any
// value other than "enabled" reads as disabled.
func (p *Prefs) DarkMode(ctx context.Context) (bool, error) {
	entry, err := p.kv.Get(ctx, DarkModeKey)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read dark mode: %w", err)
	}
	return entry.Value == Enabled, nil
}

// SetDarkMode stores the dark mode preference.
func (p *Prefs) SetDarkMode(ctx context.Context, on bool) error {
	value := Disabled
	if on {
		value = Enabled
	}
	if err := p.kv.Put(ctx, DarkModeKey, value); err != nil {
		return fmt.Errorf("write dark mode: %w", err)
	}
	return nil
}

// ToggleDarkMode flips the preference and returns the new value.
func (p *Prefs) ToggleDarkMode(ctx context.Context) (bool, error) {
	on, err := p.DarkMode(ctx)
	if err != nil {
		return false, err
	}
	if err := p.SetDarkMode(ctx, !on); err != nil {
		return on, err
	}
	return !on, nil
}
