package errors

import (
	"fmt"
)

// TerrainError is the boundary error type: a stable, machine-readable Code
// plus a human-readable Message. Pipeline.Build and Run.Step return no other
// error type; UnmarshalSnapshot passes JSON decoding errors through as is.
type TerrainError struct {
	Code    string
	Message string
	Err     error
}

func (e *TerrainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *TerrainError) Unwrap() error {
	return e.Err
}

// Sentinel boundary errors (class 1 in the error taxonomy: programmer
// errors, reported by the normalizer before any stage runs).
var (
	ErrInvalidConfig   = &TerrainError{Code: "INVALID_CONFIG", Message: "config width/height out of bounds"}
	ErrInvalidControls = &TerrainError{Code: "INVALID_CONTROLS", Message: "controls degenerate after clamping"}
)

// WithDetail returns a copy of a sentinel error carrying an additional
// message describing which field failed.
func WithDetail(base *TerrainError, detail string) *TerrainError {
	return &TerrainError{Code: base.Code, Message: fmt.Sprintf("%s: %s", base.Message, detail)}
}

// BugError marks a violated "impossible invariant" (error taxonomy class 3).
// It is never returned; it is always the argument to panic. Callers that
// recover from a pipeline run can type-assert on it to extract the
// bug-report identifier for logging.
type BugError struct {
	ID     string
	Detail string
}

func (e *BugError) Error() string {
	return fmt.Sprintf("terraincore bug %s: %s", e.ID, e.Detail)
}

// Bug constructs a BugError for an impossible-invariant panic. id should be a
// short stable identifier (e.g. "mesh-face-lt-3-vertices") so occurrences can
// be grouped across reports.
func Bug(id, detail string) *BugError {
	return &BugError{ID: id, Detail: detail}
}
