package cache

import (
	"time"

	"github.com/roach88/staffdir/internal/roster"
)

// Status is the outcome of a cache read.
type Status int

const (
	// StatusAbsent: nothing stored (or the store could not be read).
	StatusAbsent Status = iota
	// StatusValid: well-formed and fresh.
	StatusValid
	// StatusExpired: well-formed but older than the TTL.
	StatusExpired
	// StatusMalformed: stored value could not be decoded.
	StatusMalformed
)

func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusValid:
		return "valid"
	case StatusExpired:
		return "expired"
	case StatusMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Result describes one cache read.
type Result struct {
	Status Status

	// Snapshot is set only when Status is StatusValid.
	Snapshot roster.Snapshot

	// Age and StoredAt are set for StatusValid and StatusExpired.
	Age      time.Duration
	StoredAt time.Time

	// Err explains StatusMalformed, or a store failure behind StatusAbsent.
	Err error
}

// Hit reports whether the read produced a usable snapshot.
func (r Result) Hit() bool {
	return r.Status == StatusValid
}
