package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/kvtrack/domain/kv"
)

// Store is a Redis-backed implementation of kv.Store.
type Store struct {
	client    *redis.Client
	keyPrefix string
}

// NewStore connects to Redis with the given configuration and verifies the connection.
func NewStore(ctx context.Context, cfg Config, opts ...ConfigOption) (*Store, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(kv.ErrStoreUnavailable, err)
	}

	return &Store{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// NewStoreFromClient creates a store from an existing Redis client.
func NewStoreFromClient(client *redis.Client, keyPrefix string) *Store {
	return &Store{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// prefixKey adds the key prefix.
func (s *Store) prefixKey(key string) string {
	return s.keyPrefix + key
}

// Set stores a value with no expiration.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return kv.ErrInvalidKey
	}

	if err := s.client.Set(ctx, s.prefixKey(key), value, 0).Err(); err != nil {
		return s.wrapError(err)
	}
	return nil
}

// SetWithExpiration stores a value that Redis expires after ttl (SETEX).
func (s *Store) SetWithExpiration(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return kv.ErrInvalidKey
	}
	if ttl <= 0 {
		return kv.ErrInvalidTTL
	}

	if err := s.client.SetEx(ctx, s.prefixKey(key), value, ttl).Err(); err != nil {
		return s.wrapError(err)
	}
	return nil
}

// Get retrieves a value; a missing key is reported as not found.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := s.client.Get(ctx, s.prefixKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, s.wrapError(err)
	}
	return result, true, nil
}

// Increment runs INCR on key.
func (s *Store) Increment(ctx context.Context, key string) (int64, error) {
	if key == "" {
		return 0, kv.ErrInvalidKey
	}

	n, err := s.client.Incr(ctx, s.prefixKey(key)).Result()
	if err != nil {
		return 0, s.wrapError(err)
	}
	return n, nil
}

// AppendToList runs RPUSH on key.
func (s *Store) AppendToList(ctx context.Context, key string, value []byte) (int64, error) {
	if key == "" {
		return 0, kv.ErrInvalidKey
	}

	n, err := s.client.RPush(ctx, s.prefixKey(key), value).Result()
	if err != nil {
		return 0, s.wrapError(err)
	}
	return n, nil
}

// ListRange runs LRANGE on key.
func (s *Store) ListRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	values, err := s.client.LRange(ctx, s.prefixKey(key), start, stop).Result()
	if err != nil {
		return nil, s.wrapError(err)
	}

	out := make([][]byte, len(values))
	for i, v := range values {
		out[i] = []byte(v)
	}
	return out, nil
}

// Flush empties the current database, or only the prefixed keys when a prefix is set.
func (s *Store) Flush(ctx context.Context) error {
	if s.keyPrefix == "" {
		if err := s.client.FlushDB(ctx).Err(); err != nil {
			return s.wrapError(err)
		}
		return nil
	}

	// Use SCAN to find all keys with our prefix
	iter := s.client.Scan(ctx, 0, s.keyPrefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		// Delete in batches of 100
		if len(keys) >= 100 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return s.wrapError(err)
			}
			keys = keys[:0]
		}
	}

	if err := iter.Err(); err != nil {
		return s.wrapError(err)
	}

	if len(keys) > 0 {
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return s.wrapError(err)
		}
	}

	return nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return s.wrapError(err)
	}
	return nil
}

// Client returns the underlying Redis client for advanced operations.
func (s *Store) Client() *redis.Client {
	return s.client
}

// wrapError wraps Redis errors with domain errors.
func (s *Store) wrapError(err error) error {
	if err == nil {
		return nil
	}

	// Server replies such as WRONGTYPE or "value is not an integer"
	var replyErr redis.Error
	if errors.As(err, &replyErr) {
		if strings.Contains(replyErr.Error(), "would overflow") {
			return errors.Join(kv.ErrOverflow, err)
		}
		return errors.Join(kv.ErrWrongType, err)
	}

	// Check for timeout
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(kv.ErrStoreUnavailable, kv.ErrOperationTimeout, err)
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Join(kv.ErrStoreUnavailable, kv.ErrOperationTimeout, err)
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	return errors.Join(kv.ErrStoreUnavailable, err)
}

// Ensure Store implements kv.Store and kv.Closer
var (
	_ kv.Store  = (*Store)(nil)
	_ kv.Closer = (*Store)(nil)
)
