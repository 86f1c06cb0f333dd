package geo

import (
	"errors"
	"fmt"
)

var (
	ErrNoSeries          = errors.New("no ^SERIES section in input")
	ErrMultipleSeries    = errors.New("more than one ^SERIES section in input")
	ErrMultiplePlatforms = errors.New("series spans several platforms; use SplitByPlatform")
)

// InconsistentReferenceError reports a cross-record reference that does not
// resolve, such as a sample naming a platform absent from the input.
type InconsistentReferenceError struct {
	Series   string
	Sample   string
	Platform string
	Reason   string
}

func (e *InconsistentReferenceError) Error() string {
	return fmt.Sprintf("series %s: sample %s references platform %q: %s", e.Series, e.Sample, e.Platform, e.Reason)
}

// SectionCountError reports a missing or repeated section when building a
// standalone sample or platform.
type SectionCountError struct {
	Kind  string
	Count int
}

func (e *SectionCountError) Error() string {
	return fmt.Sprintf("expected exactly one ^%s section, found %d", e.Kind, e.Count)
}

// DuplicateError reports an ID seen twice where IDs must be unique: a sample or
// platform section within a series, or a probe within a platform table.
type DuplicateError struct {
	In   string
	Kind string
	ID   string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s: %s %s declared twice", e.In, e.Kind, e.ID)
}
