// Package application provides the cache, replay and web cache components.
package application

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/kvtrack/domain/kv"
	"github.com/felixgeelhaar/kvtrack/domain/middleware"
	"github.com/felixgeelhaar/kvtrack/domain/value"
	instrument "github.com/felixgeelhaar/kvtrack/infrastructure/middleware"
)

// MethodStore is the name under which Store calls are counted and recorded.
const MethodStore = "Cache.Store"

// Cache stores scalar values under fresh random keys and reads them back.
type Cache struct {
	store  kv.Store
	keygen func() string
	handle middleware.Handler
}

// NewCache creates a cache over store. Unless disabled with
// WithFlushOnStart(false), the store is flushed first.
func NewCache(ctx context.Context, store kv.Store, opts ...CacheOption) (*Cache, error) {
	cfg := DefaultCacheConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.FlushOnStart {
		if err := store.Flush(ctx); err != nil {
			return nil, fmt.Errorf("flush store: %w", err)
		}
	}

	c := &Cache{
		store:  store,
		keygen: cfg.KeyGenerator,
	}

	c.handle = middleware.NewRegistry().
		Use(instrument.CallHistory(store)).
		Use(instrument.CountCalls(store)).
		UseMany(cfg.Middleware...).
		Wrap(c.storeHandler)

	return c, nil
}

// Store writes v under a fresh key and returns the key.
func (c *Cache) Store(ctx context.Context, v value.Value) (string, error) {
	result, err := c.handle(ctx, &middleware.Invocation{
		Method: MethodStore,
		Args:   []any{v},
	})
	if err != nil {
		return "", err
	}
	key, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("store returned %T, want string", result)
	}
	return key, nil
}

func (c *Cache) storeHandler(ctx context.Context, inv *middleware.Invocation) (any, error) {
	v, ok := inv.Args[0].(value.Value)
	if !ok {
		return nil, fmt.Errorf("store argument is %T, want value.Value", inv.Args[0])
	}
	key := c.keygen()
	if err := c.store.Set(ctx, key, v.Encode()); err != nil {
		return nil, err
	}
	return key, nil
}

// Get returns the raw bytes stored under key. A missing key is not an error.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return c.store.Get(ctx, key)
}

// GetAs reads key and converts it with decode.
func GetAs[T any](ctx context.Context, c *Cache, key string, decode value.Decoder[T]) (T, bool, error) {
	var zero T
	raw, found, err := c.Get(ctx, key)
	if err != nil || !found {
		return zero, found, err
	}
	v, err := decode(raw)
	if err != nil {
		return zero, true, err
	}
	return v, true, nil
}

// GetStr reads key as UTF-8 text.
func (c *Cache) GetStr(ctx context.Context, key string) (string, bool, error) {
	return GetAs(ctx, c, key, value.DecodeText)
}

// GetInt reads key as a base-10 integer.
func (c *Cache) GetInt(ctx context.Context, key string) (int64, bool, error) {
	return GetAs(ctx, c, key, value.DecodeInt)
}

// GetFloat reads key as a float.
func (c *Cache) GetFloat(ctx context.Context, key string) (float64, bool, error) {
	return GetAs(ctx, c, key, value.DecodeFloat)
}

// GetValue reads key and rebuilds a Value of the given kind.
func (c *Cache) GetValue(ctx context.Context, key string, kind value.Kind) (value.Value, bool, error) {
	return GetAs(ctx, c, key, func(raw []byte) (value.Value, error) {
		return value.Decode(kind, raw)
	})
}

// CallCount returns how many times method has been invoked. Zero if never.
func (c *Cache) CallCount(ctx context.Context, method string) (int64, error) {
	return GetCount(ctx, c.store, method)
}

// GetCount reads an integer counter from store, returning zero when absent.
func GetCount(ctx context.Context, store kv.Store, key string) (int64, error) {
	raw, found, err := store.Get(ctx, key)
	if err != nil || !found {
		return 0, err
	}
	return value.DecodeInt(raw)
}
