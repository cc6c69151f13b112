package config

import (
	"context"
	"testing"
	"time"

	domainconfig "github.com/felixgeelhaar/kvtrack/domain/config"
	"github.com/felixgeelhaar/kvtrack/infrastructure/observability"
	"github.com/felixgeelhaar/kvtrack/infrastructure/storage/badger"
	"github.com/felixgeelhaar/kvtrack/infrastructure/storage/memory"
	"github.com/felixgeelhaar/kvtrack/infrastructure/storage/mongodb"
)

func TestBuilder_Adapters(t *testing.T) {
	t.Parallel()

	cfg := domainconfig.Default()
	cfg.Redis.Address = "r:1"
	cfg.Redis.KeyPrefix = "p:"
	cfg.Redis.DB = 2
	cfg.Mongo.URI = "mongodb://m:1"
	cfg.Mongo.QueryTimeout = domainconfig.Duration(time.Second)
	cfg.Fetch.Timeout = domainconfig.Duration(3 * time.Second)
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	b := NewBuilder(cfg)

	rc := b.Redis()
	if rc.Address != "r:1" || rc.KeyPrefix != "p:" || rc.DB != 2 {
		t.Errorf("Redis() = %+v", rc)
	}
	if rc.MaxRetries != -1 {
		t.Errorf("Redis().MaxRetries = %d, want -1", rc.MaxRetries)
	}

	mc := mongodb.DefaultConfig()
	for _, opt := range b.Mongo() {
		opt(&mc)
	}
	if mc.URI != "mongodb://m:1" || mc.QueryTimeout != time.Second {
		t.Errorf("Mongo() = %+v", mc)
	}

	if fc := b.Fetch(); fc.Timeout != 3*time.Second {
		t.Errorf("Fetch().Timeout = %v", fc.Timeout)
	}

	lc := b.Logging()
	if lc.Level != "debug" || lc.Format != "json" {
		t.Errorf("Logging() = %+v", lc)
	}
}

func TestBuilder_Observability(t *testing.T) {
	t.Parallel()

	cfg := domainconfig.Default()
	cfg.Tracing = domainconfig.TracingConfig{
		Enabled:    true,
		Exporter:   "otlp",
		Endpoint:   "collector:4317",
		Insecure:   true,
		SampleRate: 0.5,
	}

	oc := observability.DefaultConfig()
	for _, opt := range NewBuilder(cfg).Observability("9.9.9") {
		opt(&oc)
	}

	if oc.ServiceVersion != "9.9.9" {
		t.Errorf("ServiceVersion = %s", oc.ServiceVersion)
	}
	if !oc.Tracing.Enabled || oc.Tracing.Exporter != observability.ExporterOTLP || oc.Tracing.Endpoint != "collector:4317" {
		t.Errorf("Tracing = %+v", oc.Tracing)
	}
	if !oc.Tracing.Insecure || oc.Tracing.SampleRate != 0.5 {
		t.Errorf("Tracing = %+v", oc.Tracing)
	}
}

func TestBuilder_OpenStore_Memory(t *testing.T) {
	t.Parallel()

	cfg := domainconfig.Default()
	cfg.Backend = domainconfig.BackendMemory

	store, err := NewBuilder(cfg).OpenStore(context.Background())
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Errorf("OpenStore() = %T, want *memory.Store", store)
	}
}

func TestBuilder_OpenStore_Badger(t *testing.T) {
	t.Parallel()

	cfg := domainconfig.Default()
	cfg.Backend = domainconfig.BackendBadger
	cfg.Badger.Dir = t.TempDir()
	cfg.Badger.KeyPrefix = "kv:"
	cfg.Badger.SyncWrites = true
	cfg.Badger.GCInterval = domainconfig.Duration(time.Minute)

	b := NewBuilder(cfg)
	got := b.Badger()
	if got.Dir != cfg.Badger.Dir || got.KeyPrefix != "kv:" || !got.SyncWrites || got.GCInterval != time.Minute {
		t.Errorf("Badger() = %+v", got)
	}

	store, err := b.OpenStore(context.Background())
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	bs, ok := store.(*badger.Store)
	if !ok {
		t.Fatalf("OpenStore() = %T, want *badger.Store", store)
	}
	t.Cleanup(func() { _ = bs.Close() })

	n, err := store.Increment(context.Background(), "hits")
	if err != nil || n != 1 {
		t.Errorf("Increment() = %d, %v", n, err)
	}
}
