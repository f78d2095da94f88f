package roster

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when an identifier is not present in a Snapshot.
var ErrNotFound = errors.New("employee not found")

// Snapshot is the ordered list of records loaded in one piece.
type Snapshot []EmployeeRecord

// ParseSnapshot decodes a JSON array of records and checks the snapshot
// invariants.
func ParseSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode employees: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if snap == nil {
		snap = Snapshot{}
	}
	return snap, nil
}

// Validate checks identifier uniqueness and non-empty names.
func (s Snapshot) Validate() error {
	seen := make(map[int]int, len(s))
	for i, rec := range s {
		if rec.Name == "" {
			return fmt.Errorf("employee[%d] (id %d): name is empty", i, rec.ConsultantID)
		}
		if prev, dup := seen[rec.ConsultantID]; dup {
			return fmt.Errorf("employee[%d]: duplicate id %d (first at %d)", i, rec.ConsultantID, prev)
		}
		seen[rec.ConsultantID] = i
	}
	return nil
}

// Find returns the record with the given identifier.
// Returns ErrNotFound if no record matches.
func (s Snapshot) Find(id int) (EmployeeRecord, error) {
	for _, rec := range s {
		if rec.ConsultantID == id {
			return rec, nil
		}
	}
	return EmployeeRecord{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
}

// Clone returns a copy that shares no backing array with s.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}
