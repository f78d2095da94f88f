// Package roster provides the employee directory data model.
//
// This package contains the record, snapshot, facet and filter criteria types
// plus the owned State holder. All other internal packages import roster;
// roster imports nothing internal.
//
// Key constraints:
//   - ConsultantID is unique within a Snapshot
//   - Name is non-empty (used for display and case-insensitive search)
//   - A Snapshot is replaced wholesale, never mutated in place
//   - JSON field names match the data resource exactly (PascalCase)
package roster
