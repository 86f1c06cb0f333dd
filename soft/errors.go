package soft

import "fmt"

// MalformedInputError means parsing cannot proceed. Line is 1-based; 0 means
// the problem was detected at end of input.
type MalformedInputError struct {
	Path   string
	Line   int
	Reason string
}

func (e *MalformedInputError) Error() string {
	where := "end of input"
	if e.Line > 0 {
		where = fmt.Sprintf("line %d", e.Line)
	}
	if e.Path != "" {
		return fmt.Sprintf("malformed SOFT %s at %s: %s", e.Path, where, e.Reason)
	}
	return fmt.Sprintf("malformed SOFT at %s: %s", where, e.Reason)
}
