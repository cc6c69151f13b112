package config

import (
	"strings"
	"testing"
)

func TestValidator_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		modify       func(*Config)
		wantErrPaths []string
	}{
		{
			name:   "default is valid",
			modify: func(*Config) {},
		},
		{
			name:   "memory backend without redis address",
			modify: func(c *Config) { c.Backend = BackendMemory; c.Redis.Address = "" },
		},
		{
			name:         "unknown backend",
			modify:       func(c *Config) { c.Backend = "etcd" },
			wantErrPaths: []string{"backend"},
		},
		{
			name:         "redis backend without address",
			modify:       func(c *Config) { c.Redis.Address = "" },
			wantErrPaths: []string{"redis.address"},
		},
		{
			name:         "badger backend without dir",
			modify:       func(c *Config) { c.Backend = BackendBadger },
			wantErrPaths: []string{"badger.dir"},
		},
		{
			name:         "negative badger gc interval",
			modify:       func(c *Config) { c.Badger.GCInterval = -1 },
			wantErrPaths: []string{"badger.gc_interval"},
		},
		{
			name:   "badger backend with dir",
			modify: func(c *Config) { c.Backend = BackendBadger; c.Badger.Dir = "/tmp/kvtrack" },
		},
		{
			name:         "negative db and pool",
			modify:       func(c *Config) { c.Redis.DB = -1; c.Redis.PoolSize = -1 },
			wantErrPaths: []string{"redis.db", "redis.pool_size"},
		},
		{
			name:         "negative mongo timeouts",
			modify:       func(c *Config) { c.Mongo.QueryTimeout = -1; c.Mongo.ConnectTimeout = -1 },
			wantErrPaths: []string{"mongo.query_timeout", "mongo.connect_timeout"},
		},
		{
			name:         "zero fetch timeout",
			modify:       func(c *Config) { c.Fetch.Timeout = 0 },
			wantErrPaths: []string{"fetch.timeout"},
		},
		{
			name: "negative fetch limits",
			modify: func(c *Config) {
				c.Fetch.MaxBodyBytes = -1
				c.Fetch.MaxConcurrent = -1
				c.Fetch.BreakerThreshold = -1
			},
			wantErrPaths: []string{"fetch.max_body_bytes", "fetch.max_concurrent", "fetch.breaker_threshold"},
		},
		{
			name:         "zero ttl",
			modify:       func(c *Config) { c.WebCache.TTL = 0 },
			wantErrPaths: []string{"web_cache.ttl"},
		},
		{
			name:         "bad logging",
			modify:       func(c *Config) { c.Logging.Level = "loud"; c.Logging.Format = "xml" },
			wantErrPaths: []string{"logging.level", "logging.format"},
		},
		{
			name:         "otlp without endpoint",
			modify:       func(c *Config) { c.Tracing.Enabled = true; c.Tracing.Exporter = "otlp" },
			wantErrPaths: []string{"tracing.endpoint"},
		},
		{
			name: "bad exporter and rate",
			modify: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "zipkin"
				c.Tracing.SampleRate = 2
			},
			wantErrPaths: []string{"tracing.exporter", "tracing.sample_rate"},
		},
		{
			name:   "tracing disabled skips checks",
			modify: func(c *Config) { c.Tracing.Exporter = "zipkin" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.modify(cfg)

			errs := NewValidator().Validate(cfg)
			if len(errs) != len(tt.wantErrPaths) {
				t.Fatalf("Validate() = %v, want paths %v", errs, tt.wantErrPaths)
			}
			for i, path := range tt.wantErrPaths {
				if errs[i].Path != path {
					t.Errorf("errs[%d].Path = %s, want %s", i, errs[i].Path, path)
				}
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Parallel()

	if got := (ValidationErrors{}).Error(); got != "no validation errors" {
		t.Errorf("empty Error() = %q", got)
	}

	one := ValidationErrors{{Path: "a", Message: "bad"}}
	if got := one.Error(); got != "a: bad" {
		t.Errorf("single Error() = %q", got)
	}

	two := ValidationErrors{{Path: "a", Message: "bad"}, {Message: "worse"}}
	got := two.Error()
	if !strings.HasPrefix(got, "2 validation errors:") || !strings.Contains(got, "- worse") {
		t.Errorf("multi Error() = %q", got)
	}
}
