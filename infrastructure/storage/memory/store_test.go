package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/kvtrack/domain/kv"
	"github.com/felixgeelhaar/kvtrack/infrastructure/storage/memory"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestStore_SetAndGet(t *testing.T) {
	t.Parallel()

	t.Run("sets and gets value", func(t *testing.T) {
		t.Parallel()

		s := memory.NewStore()
		ctx := context.Background()

		if err := s.Set(ctx, "key1", []byte("value1")); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		value, found, err := s.Get(ctx, "key1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !found {
			t.Error("Get() should find the key")
		}
		if string(value) != "value1" {
			t.Errorf("Get() value = %s, want value1", value)
		}
	})

	t.Run("returns miss for non-existent key", func(t *testing.T) {
		t.Parallel()

		s := memory.NewStore()
		value, found, err := s.Get(context.Background(), "nonexistent")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if found || value != nil {
			t.Errorf("Get() = %v, %v; want nil, false", value, found)
		}
	})

	t.Run("rejects empty key", func(t *testing.T) {
		t.Parallel()

		s := memory.NewStore()
		if err := s.Set(context.Background(), "", []byte("v")); !errors.Is(err, kv.ErrInvalidKey) {
			t.Errorf("Set() error = %v, want ErrInvalidKey", err)
		}
	})

	t.Run("returned value is a copy", func(t *testing.T) {
		t.Parallel()

		s := memory.NewStore()
		ctx := context.Background()
		_ = s.Set(ctx, "k", []byte("abc"))

		v, _, _ := s.Get(ctx, "k")
		v[0] = 'z'

		again, _, _ := s.Get(ctx, "k")
		if string(again) != "abc" {
			t.Errorf("stored value mutated: %s", again)
		}
	})

	t.Run("honors cancelled context", func(t *testing.T) {
		t.Parallel()

		s := memory.NewStore()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := s.Set(ctx, "k", nil); !errors.Is(err, context.Canceled) {
			t.Errorf("Set() error = %v, want context.Canceled", err)
		}
	})
}

func TestStore_SetWithExpiration(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1000, 0)}
	s := memory.NewStore(memory.WithClock(clock.Now))
	ctx := context.Background()

	if err := s.SetWithExpiration(ctx, "page", []byte("body"), 10*time.Second); err != nil {
		t.Fatalf("SetWithExpiration() error = %v", err)
	}

	clock.Advance(9 * time.Second)
	if _, found, _ := s.Get(ctx, "page"); !found {
		t.Error("entry should be present within TTL")
	}

	clock.Advance(time.Second)
	if _, found, _ := s.Get(ctx, "page"); found {
		t.Error("entry should expire at TTL")
	}

	if err := s.SetWithExpiration(ctx, "page", nil, 0); !errors.Is(err, kv.ErrInvalidTTL) {
		t.Errorf("zero TTL error = %v, want ErrInvalidTTL", err)
	}
}

func TestStore_Increment(t *testing.T) {
	t.Parallel()

	t.Run("counts from zero", func(t *testing.T) {
		t.Parallel()

		s := memory.NewStore()
		ctx := context.Background()

		for want := int64(1); want <= 3; want++ {
			got, err := s.Increment(ctx, "counter")
			if err != nil {
				t.Fatalf("Increment() error = %v", err)
			}
			if got != want {
				t.Errorf("Increment() = %d, want %d", got, want)
			}
		}

		raw, _, _ := s.Get(ctx, "counter")
		if string(raw) != "3" {
			t.Errorf("stored counter = %s, want 3", raw)
		}
	})

	t.Run("fails on non-integer value", func(t *testing.T) {
		t.Parallel()

		s := memory.NewStore()
		ctx := context.Background()
		_ = s.Set(ctx, "k", []byte("abc"))

		if _, err := s.Increment(ctx, "k"); !errors.Is(err, kv.ErrWrongType) {
			t.Errorf("Increment() error = %v, want ErrWrongType", err)
		}
	})

	t.Run("fails at the int64 limit", func(t *testing.T) {
		t.Parallel()

		s := memory.NewStore()
		ctx := context.Background()
		_ = s.Set(ctx, "k", []byte("9223372036854775807"))

		if _, err := s.Increment(ctx, "k"); !errors.Is(err, kv.ErrOverflow) {
			t.Errorf("Increment() error = %v, want ErrOverflow", err)
		}
		raw, _, _ := s.Get(ctx, "k")
		if string(raw) != "9223372036854775807" {
			t.Errorf("counter changed to %s after overflow", raw)
		}
	})

	t.Run("concurrent increments are atomic", func(t *testing.T) {
		t.Parallel()

		s := memory.NewStore()
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = s.Increment(ctx, "c")
			}()
		}
		wg.Wait()

		raw, _, _ := s.Get(ctx, "c")
		if string(raw) != "50" {
			t.Errorf("counter = %s, want 50", raw)
		}
	})
}

func TestStore_Lists(t *testing.T) {
	t.Parallel()

	s := memory.NewStore()
	ctx := context.Background()

	for i, v := range []string{"a", "b", "c", "d"} {
		n, err := s.AppendToList(ctx, "list", []byte(v))
		if err != nil {
			t.Fatalf("AppendToList() error = %v", err)
		}
		if n != int64(i+1) {
			t.Errorf("AppendToList() length = %d, want %d", n, i+1)
		}
	}

	tests := []struct {
		name        string
		start, stop int64
		want        []string
	}{
		{"full", 0, -1, []string{"a", "b", "c", "d"}},
		{"prefix", 0, 1, []string{"a", "b"}},
		{"negative start", -2, -1, []string{"c", "d"}},
		{"stop past end", 2, 100, []string{"c", "d"}},
		{"start past end", 10, 20, nil},
		{"inverted", 3, 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListRange(ctx, "list", tt.start, tt.stop)
			if err != nil {
				t.Fatalf("ListRange() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ListRange() = %q, want %q", got, tt.want)
			}
			for i := range tt.want {
				if string(got[i]) != tt.want[i] {
					t.Errorf("ListRange()[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}

	t.Run("missing list is empty", func(t *testing.T) {
		got, err := s.ListRange(ctx, "missing", 0, -1)
		if err != nil || len(got) != 0 {
			t.Errorf("ListRange(missing) = %v, %v", got, err)
		}
	})

	t.Run("type mismatch", func(t *testing.T) {
		_ = s.Set(ctx, "scalar", []byte("x"))
		if _, err := s.AppendToList(ctx, "scalar", []byte("y")); !errors.Is(err, kv.ErrWrongType) {
			t.Errorf("AppendToList(scalar) error = %v, want ErrWrongType", err)
		}
		if _, _, err := s.Get(ctx, "list"); !errors.Is(err, kv.ErrWrongType) {
			t.Errorf("Get(list) error = %v, want ErrWrongType", err)
		}
	})
}

func TestStore_Flush(t *testing.T) {
	t.Parallel()

	s := memory.NewStore()
	ctx := context.Background()

	_ = s.Set(ctx, "a", []byte("1"))
	_, _ = s.AppendToList(ctx, "b", []byte("2"))

	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}

	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() after Flush = %d, want 0", s.Len())
	}
}
