package application

import (
	"context"
	"fmt"
	"net/url"

	"github.com/felixgeelhaar/kvtrack/domain/kv"
	"github.com/felixgeelhaar/kvtrack/domain/middleware"
	"github.com/felixgeelhaar/kvtrack/domain/page"
	instrument "github.com/felixgeelhaar/kvtrack/infrastructure/middleware"
	"github.com/felixgeelhaar/kvtrack/infrastructure/logging"
	"github.com/felixgeelhaar/kvtrack/infrastructure/telemetry"
)

const (
	// MethodGetPage names GetPage invocations.
	MethodGetPage = "WebCache.GetPage"

	countPrefix  = "count:"
	cachedPrefix = "cached:"
)

// CountKey returns the access counter key for url.
func CountKey(url string) string {
	return countPrefix + url
}

// CachedKey returns the cached body key for url.
func CachedKey(url string) string {
	return cachedPrefix + url
}

// WebCache fetches pages and caches their bodies with a TTL, counting every access.
type WebCache struct {
	store   kv.Store
	fetcher page.Fetcher
	config  WebCacheConfig
	handle  middleware.Handler
}

// NewWebCache creates a web cache. Unlike NewCache it does not flush the store.
func NewWebCache(store kv.Store, fetcher page.Fetcher, opts ...WebCacheOption) *WebCache {
	cfg := DefaultWebCacheConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &telemetry.NoopMetricsProvider{}
	}

	w := &WebCache{
		store:   store,
		fetcher: fetcher,
		config:  cfg,
	}
	w.handle = instrument.CountCalls(store, instrument.WithCountKey(func(inv *middleware.Invocation) string {
		return CountKey(inv.Args[0].(string))
	}))(w.getPage)
	return w
}

// GetPage returns the body of url, served from cache when a non-empty copy is
// present. The access counter is incremented on every call, hit or miss.
// Failed fetches are not cached.
func (w *WebCache) GetPage(ctx context.Context, url string) (string, error) {
	result, err := w.handle(ctx, &middleware.Invocation{
		Method: MethodGetPage,
		Args:   []any{url},
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (w *WebCache) getPage(ctx context.Context, inv *middleware.Invocation) (any, error) {
	rawURL := inv.Args[0].(string)
	host := hostOf(rawURL)
	key := CachedKey(rawURL)

	cached, found, err := w.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if found && len(cached) > 0 {
		w.config.Metrics.RecordPageHit(ctx, host)
		logging.Debug().Add(logging.URL(rawURL)).Add(logging.Cached(true)).Msg("page served")
		return string(cached), nil
	}

	w.config.Metrics.RecordPageMiss(ctx, host)
	body, err := w.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if err := w.store.SetWithExpiration(ctx, key, []byte(body), w.config.TTL); err != nil {
		return nil, fmt.Errorf("cache page: %w", err)
	}
	logging.Debug().Add(logging.URL(rawURL)).Add(logging.Cached(false)).Msg("page served")
	return body, nil
}

// AccessCount returns how many times url has been requested through GetPage.
func (w *WebCache) AccessCount(ctx context.Context, url string) (int64, error) {
	return GetCount(ctx, w.store, CountKey(url))
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
