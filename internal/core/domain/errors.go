package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned for bad bounds, a non-positive step
	// or cell area, and unknown regions. It is fatal to the operation.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrRegionNotFound is returned when a region name is absent from the
	// boundary dataset. It matches ErrInvalidConfiguration with errors.Is.
	ErrRegionNotFound = fmt.Errorf("%w: region not found", ErrInvalidConfiguration)

	// ErrLookupFailure marks a failed single-point elevation lookup. The
	// sample is skipped, the run continues.
	ErrLookupFailure = errors.New("elevation lookup failed")

	// ErrBatchLookupFailure marks a failed batch lookup. A batch has no
	// partial results, so the whole operation is aborted.
	ErrBatchLookupFailure = errors.New("batch elevation lookup failed")
)

// LookupError describes a failed lookup for one coordinate.
type LookupError struct {
	Coordinate Coordinate
	Status     int // HTTP status, 0 when the request never completed
	Err        error
}

func (e *LookupError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("lookup %s: status %d", e.Coordinate, e.Status)
	}
	return fmt.Sprintf("lookup %s: %v", e.Coordinate, e.Err)
}

// Unwrap lets errors.Is match both ErrLookupFailure and the cause.
func (e *LookupError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrLookupFailure}
	}
	return []error{ErrLookupFailure, e.Err}
}

// BatchLookupError describes a failed batch request.
type BatchLookupError struct {
	Size   int
	Status int
	Err    error
}

func (e *BatchLookupError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("batch lookup of %d locations: status %d", e.Size, e.Status)
	}
	return fmt.Sprintf("batch lookup of %d locations: %v", e.Size, e.Err)
}

func (e *BatchLookupError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrBatchLookupFailure}
	}
	return []error{ErrBatchLookupFailure, e.Err}
}
