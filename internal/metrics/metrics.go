// Package metrics records directory activity.
//
// Components depend on the Collector interface; NoOp is the default and
// Prometheus exports counters on /metrics.
package metrics

import "time"

// Collector receives directory events.
type Collector interface {
	// CacheRead records one cache read by outcome ("valid", "expired", ...).
	CacheRead(status string)

	// Load records one data load. origin is "cache" or "remote".
	Load(origin string, d time.Duration, err error)

	// FilterApplied records one filter pass and how many records matched.
	FilterApplied(matched int)

	// Login records one login attempt.
	Login(ok bool)

	// SnapshotSize sets the number of records currently published.
	SnapshotSize(n int)
}

// NoOp discards everything.
type NoOp struct{}

func (NoOp) CacheRead(string) {}
func (NoOp) Load(string, time.Duration, error) {}
func (NoOp) FilterApplied(int) {}
func (NoOp) Login(bool) {}
func (NoOp) SnapshotSize(int) {}

// OrNoOp returns c, or NoOp if c is nil.
func OrNoOp(c Collector) Collector {
	if c == nil {
		return NoOp{}
	}
	return c
}
