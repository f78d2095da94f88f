package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/staffdir/internal/testutil"
)

// createTestStore creates a new file-backed store driven by a fake clock.
func createTestStore(t *testing.T) (*Store, *testutil.FakeClock) {
	t.Helper()
	clk := testutil.NewFakeClock()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(clk))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clk
}
