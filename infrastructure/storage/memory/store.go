// Package memory provides an in-process key-value store used for tests and
// single-process runs.
package memory

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/felixgeelhaar/kvtrack/domain/kv"
)

// entry holds either a scalar or a list, with an optional expiration.
type entry struct {
	scalar    []byte
	list      [][]byte
	isList    bool
	expiresAt time.Time
}

// expired reports whether the entry has expired at now.
func (e *entry) expired(now time.Time) bool {
	if e.expiresAt.IsZero() {
		return false
	}
	return !now.Before(e.expiresAt)
}

// Store is an in-memory implementation of kv.Store.
// Expiration is evaluated lazily against the configured clock.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// StoreOption configures the store.
type StoreOption func(*Store)

// WithClock sets the time source used for expiration.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lookup returns the live entry for key, dropping it if expired.
// Must be called with lock held.
func (s *Store) lookup(key string) (*entry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(s.now()) {
		delete(s.entries, key)
		return nil, false
	}
	return e, true
}

// Set stores a value with no expiration.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.set(ctx, key, value, 0)
}

// SetWithExpiration stores a value that expires after ttl.
func (s *Store) SetWithExpiration(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return kv.ErrInvalidTTL
	}
	return s.set(ctx, key, value, ttl)
}

func (s *Store) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return kv.ErrInvalidKey
	}

	c := make([]byte, len(value))
	copy(c, value)

	e := &entry{scalar: c}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = e
	return nil
}

// Get retrieves a scalar value.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		return nil, false, nil
	}
	if e.isList {
		return nil, false, kv.ErrWrongType
	}

	// Return a copy to prevent mutation
	value := make([]byte, len(e.scalar))
	copy(value, e.scalar)
	return value, true, nil
}

// Increment adds one to the integer stored at key.
func (s *Store) Increment(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if key == "" {
		return 0, kv.ErrInvalidKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		s.entries[key] = &entry{scalar: []byte("1")}
		return 1, nil
	}
	if e.isList {
		return 0, kv.ErrWrongType
	}

	n, err := strconv.ParseInt(string(e.scalar), 10, 64)
	if err != nil {
		return 0, kv.ErrWrongType
	}
	if n == math.MaxInt64 {
		return 0, kv.ErrOverflow
	}
	n++
	e.scalar = strconv.AppendInt(nil, n, 10)
	return n, nil
}

// AppendToList appends value to the list at key.
func (s *Store) AppendToList(ctx context.Context, key string, value []byte) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if key == "" {
		return 0, kv.ErrInvalidKey
	}

	c := make([]byte, len(value))
	copy(c, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		e = &entry{isList: true}
		s.entries[key] = e
	}
	if !e.isList {
		return 0, kv.ErrWrongType
	}

	e.list = append(e.list, c)
	return int64(len(e.list)), nil
}

// ListRange returns list elements between start and stop inclusive,
// following Redis LRANGE index rules.
func (s *Store) ListRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		return [][]byte{}, nil
	}
	if !e.isList {
		return nil, kv.ErrWrongType
	}

	n := int64(len(e.list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return [][]byte{}, nil
	}

	out := make([][]byte, 0, stop-start+1)
	for _, v := range e.list[start : stop+1] {
		c := make([]byte, len(v))
		copy(c, v)
		out = append(out, c)
	}
	return out, nil
}

// Flush removes all entries.
func (s *Store) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*entry)
	return nil
}

// Len returns the number of live keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for _, e := range s.entries {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

// Ensure Store implements kv.Store
var _ kv.Store = (*Store)(nil)
