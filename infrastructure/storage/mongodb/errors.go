package mongodb

import "errors"

var (
	// ErrConnectionFailed indicates the server could not be reached or rejected the operation.
	ErrConnectionFailed = errors.New("mongodb connection failed")

	// ErrOperationTimeout indicates a query exceeded its deadline.
	ErrOperationTimeout = errors.New("mongodb operation timeout")

	// ErrInvalidArgument indicates a missing or malformed argument.
	ErrInvalidArgument = errors.New("invalid argument")
)
