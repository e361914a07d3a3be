package domain

import "errors"

var (
	// ErrInvalidInput is returned when a client-supplied amount is not a number.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorageUnavailable is returned when the store rejects a write.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrAggregationFailed is returned when any step of a daily run fails.
	ErrAggregationFailed = errors.New("aggregation failed")

	// ErrNotFound is returned when no daily total exists for a date key.
	ErrNotFound = errors.New("not found")
)
