// Package kv provides the domain interface for the networked key-value store
// that owns all cache, counter and history state.
package kv

import (
	"context"
	"time"
)

// Store defines the key-value operations the cache components rely on.
// Each method is a single round trip and must be atomic on the backend.
// Implementations may be Redis, in-memory, or any other backend.
type Store interface {
	// Set stores value under key with no expiration.
	Set(ctx context.Context, key string, value []byte) error

	// SetWithExpiration stores value under key; the backend removes it after ttl.
	SetWithExpiration(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves the value for key.
	// Returns the value, whether it was found, and any error.
	// An absent key is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Increment atomically adds one to the integer at key and returns the new value.
	// A missing key counts as zero.
	Increment(ctx context.Context, key string) (int64, error)

	// AppendToList appends value to the tail of the list at key and
	// returns the list length after the append.
	AppendToList(ctx context.Context, key string, value []byte) (int64, error)

	// ListRange returns the elements of the list at key between start and stop
	// inclusive. Negative indexes count from the tail (-1 is the last element).
	// A missing key yields an empty slice.
	ListRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)

	// Flush removes every key owned by this store.
	Flush(ctx context.Context) error
}

// Closer is implemented by stores holding a live connection.
type Closer interface {
	Close() error
}
