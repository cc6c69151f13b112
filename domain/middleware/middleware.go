// Package middleware provides composable middleware for instrumented method calls.
package middleware

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Invocation describes one call flowing through a middleware chain.
type Invocation struct {
	// Method is the fully-qualified method name, e.g. "Cache.Store".
	Method string
	// Args are the call's input arguments in order.
	Args []any
}

// Handler performs the wrapped call and returns its result.
type Handler func(ctx context.Context, inv *Invocation) (any, error)

// Middleware wraps a Handler with additional behavior.
// Middleware can:
// - Execute code before the next handler
// - Execute code after the next handler
// - Short-circuit by not calling next
// - Transform results or errors
type Middleware func(next Handler) Handler

// Chain composes multiple middleware into a single middleware.
// Middleware are executed in the order provided, with each wrapping the next.
// For example, Chain(A, B, C) produces: A -> B -> C -> handler
func Chain(middlewares ...Middleware) Middleware {
	return func(final Handler) Handler {
		// Build chain from right to left so execution is left to right
		handler := final
		for i := len(middlewares) - 1; i >= 0; i-- {
			handler = middlewares[i](handler)
		}
		return handler
	}
}

// Noop returns a middleware that does nothing, just passes through.
func Noop() Middleware {
	return func(next Handler) Handler {
		return next
	}
}

// RenderArgs formats call arguments as a parenthesised, comma-separated list.
// Strings are quoted; values implementing fmt.Stringer use their String form.
func RenderArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = renderArg(a)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func renderArg(a any) string {
	switch v := a.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(v)
	case []byte:
		return "[]byte(" + strconv.Quote(string(v)) + ")"
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// RenderResult formats a call result as display text.
// Strings are written verbatim.
func RenderResult(r any) string {
	switch v := r.(type) {
	case nil:
		return "nil"
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
