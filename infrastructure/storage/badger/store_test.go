package badger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/kvtrack/domain/kv"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := NewStore(DefaultConfig(), append([]Option{WithInMemory()}, opts...)...)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SetGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	if _, found, err := s.Get(ctx, "missing"); found || err != nil {
		t.Fatalf("Get(missing) = found %v, err %v", found, err)
	}

	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, found, err := s.Get(ctx, "k")
	if err != nil || !found || string(got) != "v" {
		t.Errorf("Get() = %q, %v, %v", got, found, err)
	}

	if err := s.Set(ctx, "", []byte("v")); !errors.Is(err, kv.ErrInvalidKey) {
		t.Errorf("Set(\"\") error = %v, want ErrInvalidKey", err)
	}
}

func TestStore_SetWithExpiration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SetWithExpiration(ctx, "k", []byte("v"), 0); !errors.Is(err, kv.ErrInvalidTTL) {
		t.Errorf("SetWithExpiration(0) error = %v, want ErrInvalidTTL", err)
	}

	if err := s.SetWithExpiration(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("SetWithExpiration() error = %v", err)
	}
	if _, found, _ := s.Get(ctx, "k"); !found {
		t.Error("value should be present before expiry")
	}
}

func TestStore_Increment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	for want := int64(1); want <= 3; want++ {
		got, err := s.Increment(ctx, "counter")
		if err != nil || got != want {
			t.Fatalf("Increment() = %d, %v; want %d", got, err, want)
		}
	}

	raw, _, _ := s.Get(ctx, "counter")
	if string(raw) != "3" {
		t.Errorf("counter stored as %q, want decimal 3", raw)
	}

	_ = s.Set(ctx, "text", []byte("abc"))
	if _, err := s.Increment(ctx, "text"); !errors.Is(err, kv.ErrWrongType) {
		t.Errorf("Increment(text) error = %v, want ErrWrongType", err)
	}

	_ = s.Set(ctx, "max", []byte("9223372036854775807"))
	if _, err := s.Increment(ctx, "max"); !errors.Is(err, kv.ErrOverflow) {
		t.Errorf("Increment(max) error = %v, want ErrOverflow", err)
	}
}

func TestStore_Lists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	for i, v := range []string{"a", "b", "c", "d"} {
		n, err := s.AppendToList(ctx, "list", []byte(v))
		if err != nil || n != int64(i+1) {
			t.Fatalf("AppendToList(%s) = %d, %v", v, n, err)
		}
	}

	tests := []struct {
		name        string
		start, stop int64
		want        []string
	}{
		{name: "all", start: 0, stop: -1, want: []string{"a", "b", "c", "d"}},
		{name: "middle", start: 1, stop: 2, want: []string{"b", "c"}},
		{name: "negative start", start: -2, stop: -1, want: []string{"c", "d"}},
		{name: "stop past end", start: 2, stop: 100, want: []string{"c", "d"}},
		{name: "empty", start: 3, stop: 1, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := s.ListRange(ctx, "list", tt.start, tt.stop)
			if err != nil {
				t.Fatalf("ListRange() error = %v", err)
			}
			if len(items) != len(tt.want) {
				t.Fatalf("ListRange() len = %d, want %d", len(items), len(tt.want))
			}
			for i := range items {
				if string(items[i]) != tt.want[i] {
					t.Errorf("items[%d] = %s, want %s", i, items[i], tt.want[i])
				}
			}
		})
	}

	missing, err := s.ListRange(ctx, "nope", 0, -1)
	if err != nil || len(missing) != 0 {
		t.Errorf("ListRange(missing) = %v, %v", missing, err)
	}

	if _, _, err := s.Get(ctx, "list"); !errors.Is(err, kv.ErrWrongType) {
		t.Errorf("Get(list) error = %v, want ErrWrongType", err)
	}
	_ = s.Set(ctx, "scalar", []byte("x"))
	if _, err := s.AppendToList(ctx, "scalar", []byte("y")); !errors.Is(err, kv.ErrWrongType) {
		t.Errorf("AppendToList(scalar) error = %v, want ErrWrongType", err)
	}
}

func TestStore_SetReplacesList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	_, _ = s.AppendToList(ctx, "k", []byte("a"))
	if err := s.Set(ctx, "k", []byte("scalar")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, found, err := s.Get(ctx, "k")
	if err != nil || !found || string(got) != "scalar" {
		t.Errorf("Get() = %q, %v, %v", got, found, err)
	}
}

func TestStore_Flush(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t, WithKeyPrefix("app:"))

	_ = s.Set(ctx, "a", []byte("1"))
	_, _ = s.AppendToList(ctx, "l", []byte("x"))

	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if _, found, _ := s.Get(ctx, "a"); found {
		t.Error("scalar should be gone after Flush")
	}
	if items, _ := s.ListRange(ctx, "l", 0, -1); len(items) != 0 {
		t.Errorf("list should be empty after Flush, got %d items", len(items))
	}
}

func TestStore_CanceledContext(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Set(ctx, "k", []byte("v")); !errors.Is(err, context.Canceled) {
		t.Errorf("Set() error = %v, want context.Canceled", err)
	}
}

func TestStore_ConcurrentWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	const workers, perWorker = 8, 50
	errs := make(chan error, workers*perWorker*2)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := s.Increment(ctx, "counter"); err != nil {
					errs <- err
				}
				if _, err := s.AppendToList(ctx, "calls", []byte("x")); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent write error = %v", err)
	}

	raw, _, err := s.Get(ctx, "counter")
	if err != nil || string(raw) != "400" {
		t.Errorf("counter = %q, %v; want 400", raw, err)
	}
	items, err := s.ListRange(ctx, "calls", 0, -1)
	if err != nil || len(items) != workers*perWorker {
		t.Errorf("list length = %d, %v; want %d", len(items), err, workers*perWorker)
	}
}

func TestStore_CanceledWrites(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Increment(ctx, "counter"); !errors.Is(err, context.Canceled) {
		t.Errorf("Increment() error = %v, want context.Canceled", err)
	}
	if _, err := s.AppendToList(ctx, "list", []byte("x")); !errors.Is(err, context.Canceled) {
		t.Errorf("AppendToList() error = %v, want context.Canceled", err)
	}
	if _, found, _ := s.Get(context.Background(), "counter"); found {
		t.Error("canceled Increment should not write")
	}
}

func TestStore_CloseIdempotent(t *testing.T) {
	t.Parallel()

	s, err := NewStore(DefaultConfig(), WithInMemory())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNormalizeRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		start, stop, n int64
		lo, hi         int64
		ok             bool
	}{
		{0, -1, 3, 0, 2, true},
		{-10, 1, 3, 0, 1, true},
		{5, 10, 3, 0, 0, false},
		{0, -1, 0, 0, 0, false},
	}
	for _, tt := range tests {
		lo, hi, ok := normalizeRange(tt.start, tt.stop, tt.n)
		if lo != tt.lo || hi != tt.hi || ok != tt.ok {
			t.Errorf("normalizeRange(%d, %d, %d) = %d, %d, %v", tt.start, tt.stop, tt.n, lo, hi, ok)
		}
	}
}

func TestNewStore_RequiresDir(t *testing.T) {
	t.Parallel()

	_, err := NewStore(DefaultConfig())
	if !errors.Is(err, ErrNoDir) || !errors.Is(err, kv.ErrStoreUnavailable) {
		t.Errorf("NewStore() error = %v, want ErrNoDir", err)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Dir = t.TempDir()
	cfg.GCInterval = time.Hour

	s, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if _, err := s.Increment(ctx, "Cache.Store"); err != nil {
		t.Fatalf("Increment() error = %v", err)
	}
	if _, err := s.AppendToList(ctx, "Cache.Store:inputs", []byte(`("a")`)); err != nil {
		t.Fatalf("AppendToList() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s, err = NewStore(cfg)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	n, err := s.Increment(ctx, "Cache.Store")
	if err != nil || n != 2 {
		t.Errorf("Increment() after reopen = %d, %v; want 2", n, err)
	}
	items, err := s.ListRange(ctx, "Cache.Store:inputs", 0, -1)
	if err != nil || len(items) != 1 || string(items[0]) != `("a")` {
		t.Errorf("ListRange() after reopen = %q, %v", items, err)
	}
}
