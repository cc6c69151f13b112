package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Method adds the fully-qualified method name of an instrumented call.
func Method(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("method", name)
	}
}

// Key adds a store key field.
func Key(key string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("key", key)
	}
}

// URL adds a page URL field.
func URL(url string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("url", url)
	}
}

// Backend adds the key-value backend name.
func Backend(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("backend", name)
	}
}

// Status adds an HTTP status code.
func Status(code int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("status", code)
	}
}

// Count adds a counter value.
func Count(n int64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("count", n)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// Cached adds a cached field.
func Cached(cached bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("cached", cached)
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Operation adds an operation field.
func Operation(op string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("operation", op)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
