// Package middleware provides store-backed instrumentation for method calls:
// call counting, call history, logging and metrics.
package middleware

import "github.com/felixgeelhaar/kvtrack/domain/middleware"

const (
	inputsSuffix  = ":inputs"
	outputsSuffix = ":outputs"

	// FailurePrefix starts the output entry recorded for a call that returned an error.
	FailurePrefix = "!error: "
)

// KeyFunc derives a store key from an invocation.
type KeyFunc func(inv *middleware.Invocation) string

// MethodKey keys by the invocation's fully-qualified method name.
func MethodKey(inv *middleware.Invocation) string {
	return inv.Method
}

// InputsKey returns the list key holding a method's recorded inputs.
func InputsKey(method string) string {
	return method + inputsSuffix
}

// OutputsKey returns the list key holding a method's recorded outputs.
func OutputsKey(method string) string {
	return method + outputsSuffix
}
