package loader

import (
	"errors"
	"fmt"
)

// Stage identifies where a load failed.
type Stage string

const (
	// StageFetch covers reading the data resource.
	StageFetch Stage = "fetch"

	// StageParse covers decoding and validating the records.
	StageParse Stage = "parse"
)

// Error is returned by Load and Reload when the data resource could not be
// turned into a snapshot. The previously published snapshot is kept.
type Error struct {
	// Stage is the step that failed.
	Stage Stage

	// Source describes the data resource, e.g. a path or URL.
	Source string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("load employees: %s %s: %v", e.Stage, e.Source, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err is a load failure while reading the
// data resource. Uses errors.As to handle wrapped errors.
func IsFetchError(err error) bool {
	var le *Error
	return errors.As(err, &le) && le.Stage == StageFetch
}

// IsParseError reports whether err is a load failure while decoding the
// data resource.
func IsParseError(err error) bool {
	var le *Error
	return errors.As(err, &le) && le.Stage == StageParse
}
