package redis

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Address != "localhost:6379" {
		t.Errorf("Address = %s, want localhost:6379", cfg.Address)
	}
	if cfg.Password != "" {
		t.Errorf("Password = %s, want empty", cfg.Password)
	}
	if cfg.DB != 0 {
		t.Errorf("DB = %d, want 0", cfg.DB)
	}
	if cfg.MaxRetries != -1 {
		t.Errorf("MaxRetries = %d, want -1", cfg.MaxRetries)
	}
	if cfg.DialTimeout != 5*time.Second {
		t.Errorf("DialTimeout = %v, want %v", cfg.DialTimeout, 5*time.Second)
	}
	if cfg.KeyPrefix != "" {
		t.Errorf("KeyPrefix = %s, want empty", cfg.KeyPrefix)
	}
}

func TestConfigOptions(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	for _, opt := range []ConfigOption{
		WithAddress("redis.example.com:6380"),
		WithPassword("p@ss=w0rd!"),
		WithDB(5),
		WithKeyPrefix("app:"),
		WithPoolSize(20),
		WithTimeouts(time.Second, 2*time.Second, 3*time.Second),
	} {
		opt(&cfg)
	}

	if cfg.Address != "redis.example.com:6380" {
		t.Errorf("Address = %s", cfg.Address)
	}
	if cfg.Password != "p@ss=w0rd!" {
		t.Errorf("Password = %s", cfg.Password)
	}
	if cfg.DB != 5 {
		t.Errorf("DB = %d, want 5", cfg.DB)
	}
	if cfg.KeyPrefix != "app:" {
		t.Errorf("KeyPrefix = %s, want app:", cfg.KeyPrefix)
	}
	if cfg.PoolSize != 20 {
		t.Errorf("PoolSize = %d, want 20", cfg.PoolSize)
	}
	if cfg.DialTimeout != time.Second || cfg.ReadTimeout != 2*time.Second || cfg.WriteTimeout != 3*time.Second {
		t.Errorf("timeouts = %v/%v/%v", cfg.DialTimeout, cfg.ReadTimeout, cfg.WriteTimeout)
	}
}
