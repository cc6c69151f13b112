package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/felixgeelhaar/kvtrack/domain/kv"
)

// Key layout under the configured prefix:
//
//	s:<key>          scalar value
//	m:<key>          list length, 8 bytes big-endian
//	l:<key>\x00<i>   list element i, i as 8 bytes big-endian
const (
	scalarSpace = "s:"
	metaSpace   = "m:"
	listSpace   = "l:"
)

// Store is a BadgerDB-backed implementation of kv.Store.
type Store struct {
	db        *badger.DB
	keyPrefix string
	writeMu   sync.Mutex
	gcStop    chan struct{}
	gcWg      sync.WaitGroup
	closeOnce sync.Once
}

// NewStore opens a BadgerDB store with the given configuration.
func NewStore(cfg Config, opts ...Option) (*Store, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:        db,
		keyPrefix: cfg.KeyPrefix,
		gcStop:    make(chan struct{}),
	}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.startGC(cfg.GCInterval)
	}

	return s, nil
}

// startGC starts the value log garbage collection goroutine.
func (s *Store) startGC(interval time.Duration) {
	s.gcWg.Add(1)
	go func() {
		defer s.gcWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.gcStop:
				return
			case <-ticker.C:
				for s.db.RunValueLogGC(gcDiscardRatio) == nil {
				}
			}
		}
	}()
}

func (s *Store) scalarKey(key string) []byte {
	return []byte(s.keyPrefix + scalarSpace + key)
}

func (s *Store) metaKey(key string) []byte {
	return []byte(s.keyPrefix + metaSpace + key)
}

func (s *Store) listPrefix(key string) []byte {
	return []byte(s.keyPrefix + listSpace + key + "\x00")
}

func (s *Store) elementKey(key string, i int64) []byte {
	k := s.listPrefix(key)
	return binary.BigEndian.AppendUint64(k, uint64(i)) // #nosec G115 -- i is non-negative
}

// Set stores value under key without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.set(ctx, key, value, 0)
}

// SetWithExpiration stores value under key, expiring after ttl.
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

	err := s.update(ctx, func(txn *badger.Txn) error {
		if err := s.dropList(txn, key); err != nil {
			return err
		}
		e := badger.NewEntry(s.scalarKey(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	return s.wrapError(err)
}

// Get retrieves the scalar stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.scalarKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			if _, found, lerr := s.listLen(txn, key); lerr != nil {
				return lerr
			} else if found {
				return kv.ErrWrongType
			}
			return err
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.wrapError(err)
	}
	return value, true, nil
}

// Increment atomically adds one to the decimal integer at key.
func (s *Store) Increment(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if key == "" {
		return 0, kv.ErrInvalidKey
	}

	var next int64
	err := s.update(ctx, func(txn *badger.Txn) error {
		if _, found, err := s.listLen(txn, key); err != nil {
			return err
		} else if found {
			return kv.ErrWrongType
		}

		var current int64
		item, err := txn.Get(s.scalarKey(key))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			err = item.Value(func(val []byte) error {
				n, err := strconv.ParseInt(string(val), 10, 64)
				if err != nil {
					return kv.ErrWrongType
				}
				current = n
				return nil
			})
			if err != nil {
				return err
			}
		}

		if current == math.MaxInt64 {
			return kv.ErrOverflow
		}
		next = current + 1
		return txn.Set(s.scalarKey(key), []byte(strconv.FormatInt(next, 10)))
	})
	if err != nil {
		return 0, s.wrapError(err)
	}
	return next, nil
}

// AppendToList appends value to the list at key and returns the new length.
func (s *Store) AppendToList(ctx context.Context, key string, value []byte) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if key == "" {
		return 0, kv.ErrInvalidKey
	}

	var length int64
	err := s.update(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(s.scalarKey(key)); err == nil {
			return kv.ErrWrongType
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		n, _, err := s.listLen(txn, key)
		if err != nil {
			return err
		}
		if err := txn.Set(s.elementKey(key, n), value); err != nil {
			return err
		}
		length = n + 1
		return txn.Set(s.metaKey(key), binary.BigEndian.AppendUint64(nil, uint64(length))) // #nosec G115 -- length is positive
	})
	if err != nil {
		return 0, s.wrapError(err)
	}
	return length, nil
}

// ListRange returns list elements from start to stop inclusive. Negative
// indexes count from the end.
func (s *Store) ListRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var items [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(s.scalarKey(key)); err == nil {
			return kv.ErrWrongType
		}

		n, found, err := s.listLen(txn, key)
		if err != nil || !found {
			return err
		}

		lo, hi, ok := normalizeRange(start, stop, n)
		if !ok {
			return nil
		}
		items = make([][]byte, 0, hi-lo+1)
		for i := lo; i <= hi; i++ {
			item, err := txn.Get(s.elementKey(key, i))
			if err != nil {
				return err
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			items = append(items, v)
		}
		return nil
	})
	if err != nil {
		return nil, s.wrapError(err)
	}
	if items == nil {
		items = [][]byte{}
	}
	return items, nil
}

// Flush removes every key under the configured prefix, or the whole
// database when no prefix is set.
func (s *Store) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.keyPrefix == "" {
		return s.wrapError(s.db.DropAll())
	}
	return s.wrapError(s.db.DropPrefix([]byte(s.keyPrefix)))
}

// Close stops garbage collection and closes the database.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.gcStop)
		s.gcWg.Wait()
		err = s.db.Close()
	})
	return err
}

// DB returns the underlying BadgerDB database.
func (s *Store) DB() *badger.DB {
	return s.db
}

// update runs fn in a read-write transaction. Writers are serialized so
// read-modify-write transactions never conflict; a conflict is reported as
// a failure, not retried.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(fn)
}

// listLen reads the list length. found is false when key holds no list.
func (s *Store) listLen(txn *badger.Txn, key string) (int64, bool, error) {
	item, err := txn.Get(s.metaKey(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	var n int64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return errors.New("invalid list length")
		}
		n = int64(binary.BigEndian.Uint64(val)) // #nosec G115 -- written by AppendToList
		return nil
	})
	return n, true, err
}

// dropList deletes the list at key, if any, so a scalar can replace it.
func (s *Store) dropList(txn *badger.Txn, key string) error {
	n, found, err := s.listLen(txn, key)
	if err != nil || !found {
		return err
	}
	for i := int64(0); i < n; i++ {
		if err := txn.Delete(s.elementKey(key, i)); err != nil {
			return err
		}
	}
	return txn.Delete(s.metaKey(key))
}

// normalizeRange converts inclusive, possibly negative, bounds over a list
// of length n into absolute indexes.
func normalizeRange(start, stop, n int64) (int64, int64, bool) {
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
		return 0, 0, false
	}
	return start, stop, true
}

// wrapError wraps Badger errors with domain errors.
func (s *Store) wrapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, kv.ErrWrongType),
		errors.Is(err, kv.ErrOverflow),
		errors.Is(err, kv.ErrInvalidKey),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return errors.Join(kv.ErrStoreUnavailable, err)
	}
}

var (
	_ kv.Store  = (*Store)(nil)
	_ kv.Closer = (*Store)(nil)
)
