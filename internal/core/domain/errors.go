package domain

import "errors"

var (
	// ErrInvalidInput is returned when a count is negative, a buffer is
	// shorter than the declared count, or a coordinate is not finite.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNumericOverflow is returned when accumulating finite input exceeds
	// the float64 range.
	ErrNumericOverflow = errors.New("numeric overflow")

	// ErrNotFound is returned by repositories when a record does not exist.
	ErrNotFound = errors.New("not found")
)
