package kv

import "errors"

// Domain errors for key-value operations.
var (
	// ErrStoreUnavailable is returned when the store cannot be reached or a command fails in transit.
	ErrStoreUnavailable = errors.New("key-value store unavailable")

	// ErrOperationTimeout is returned when a store operation exceeds its deadline.
	ErrOperationTimeout = errors.New("key-value operation timeout")

	// ErrInvalidKey is returned when a key is invalid (e.g., empty).
	ErrInvalidKey = errors.New("invalid key")

	// ErrInvalidTTL is returned when an expiration is not a positive duration.
	ErrInvalidTTL = errors.New("invalid time-to-live")

	// ErrWrongType is returned when an operation targets a key holding an incompatible value,
	// such as incrementing text or appending to a scalar.
	ErrWrongType = errors.New("operation against a key holding the wrong kind of value")

	// ErrOverflow is returned when incrementing a counter would exceed the int64 range.
	ErrOverflow = errors.New("increment would overflow")
)
