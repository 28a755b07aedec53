package seqmatch

import (
	"errors"
	"fmt"
)

// ErrNoPatterns is returned when a scan is attempted against an empty
// pattern table or element chain.
var ErrNoPatterns = errors.New("seqmatch: no patterns registered")

// InvalidPatternError reports a structurally invalid pattern configuration,
// detected at registration time rather than mid-scan.
type InvalidPatternError struct {
	Name   string
	Reason string
}

func (e *InvalidPatternError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("seqmatch: invalid pattern: %s", e.Reason)
	}
	return fmt.Sprintf("seqmatch: invalid pattern %q: %s", e.Name, e.Reason)
}

// InvalidPositionError reports a Skip/Jump/RestartFrom target outside
// [0, input length].
type InvalidPositionError struct {
	Position int
	Length   int
}

func (e *InvalidPositionError) Error() string {
	return fmt.Sprintf("seqmatch: invalid position %d (input length %d)", e.Position, e.Length)
}

// PatternNotFoundError reports removal of a pattern name that is not in the table.
type PatternNotFoundError struct {
	Name string
}

func (e *PatternNotFoundError) Error() string {
	return fmt.Sprintf("seqmatch: pattern not found: %s", e.Name)
}

// ExtractorFailedError wraps an error returned by an extractor hook.
type ExtractorFailedError struct {
	ID  ExtractorID
	Err error
}

func (e *ExtractorFailedError) Error() string {
	return fmt.Sprintf("seqmatch: extractor %d failed: %v", e.ID, e.Err)
}

func (e *ExtractorFailedError) Unwrap() error { return e.Err }

// ExtractorPanicError reports a runtime fault inside an extractor hook.
// The fault is caught at the call boundary; it never unwinds through the engine.
type ExtractorPanicError struct {
	ID    ExtractorID
	Value any
}

func (e *ExtractorPanicError) Error() string {
	return fmt.Sprintf("seqmatch: extractor %d panicked: %v", e.ID, e.Value)
}
