package roster

import "sync/atomic"

// State owns the current Snapshot for the lifetime of a process.
//
// The loader is the only writer. Readers get the snapshot value and must
// treat it as read-only; Replace swaps the whole snapshot atomically.
type State struct {
	snap atomic.Pointer[Snapshot]
}

// NewState creates a State holding an empty snapshot.
func NewState() *State {
	s := &State{}
	empty := Snapshot{}
	s.snap.Store(&empty)
	return s
}

// Snapshot returns the current snapshot.
func (s *State) Snapshot() Snapshot {
	p := s.snap.Load()
	if p == nil {
		return Snapshot{}
	}
	return *p
}

// Replace publishes a new snapshot.
func (s *State) Replace(snap Snapshot) {
	if snap == nil {
		snap = Snapshot{}
	}
	s.snap.Store(&snap)
}

// Len returns the number of records in the current snapshot.
func (s *State) Len() int {
	return len(s.Snapshot())
}
