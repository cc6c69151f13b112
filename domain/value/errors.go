package value

import "errors"

// Domain errors for value conversion.
var (
	// ErrDecode is returned when stored bytes cannot be converted to the requested type.
	ErrDecode = errors.New("cannot decode stored value")

	// ErrUnknownKind is returned for an unrecognised value kind.
	ErrUnknownKind = errors.New("unknown value kind")
)
