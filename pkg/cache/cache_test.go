package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(WithMaxSize(3))
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), i, 0)
	}
	if c.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", c.Len())
	}
	for _, k := range []string{"k0", "k1"} {
		if _, ok := c.Get(k); ok {
			t.Fatalf("expected %s evicted", k)
		}
	}
	for _, k := range []string{"k2", "k3", "k4"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("expected %s present", k)
		}
	}
}

func TestGetPromotesRecency(t *testing.T) {
	c := New(WithMaxSize(3))
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("c", 3, 0)

	// Touch the oldest key, then force one eviction.
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a present")
	}
	c.Set("d", 4, 0)

	if _, ok := c.Get("a"); !ok {
		t.Fatalf("promoted key a should survive eviction")
	}
	if _, ok := c.Get("b"); ok {
		t.Fatalf("untouched key b should be evicted")
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c := New()
	c.Set("k", "v", 0)
	time.Sleep(10 * time.Millisecond)
	v, ok := c.Get("k")
	if !ok || v.(string) != "v" {
		t.Fatalf("expected v, got %v ok=%v", v, ok)
	}
	c.Set("neg", "v", -5*time.Second)
	if _, ok := c.Get("neg"); !ok {
		t.Fatalf("negative ttl must mean never expires")
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New()
	c.Set("k", 42, 20*time.Millisecond)
	if v, ok := c.Get("k"); !ok || v.(int) != 42 {
		t.Fatalf("expected immediate hit, got %v ok=%v", v, ok)
	}
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected entry expired")
	}
}

func TestMaxSizeNormalized(t *testing.T) {
	c := New(WithMaxSize(-1))
	if c.maxSize != DefaultMaxSize {
		t.Fatalf("expected default max size, got %d", c.maxSize)
	}
}

func TestSetOverwriteKeepsSingleEntry(t *testing.T) {
	c := New(WithMaxSize(2))
	c.Set("k", 1, 0)
	c.Set("k", 2, 0)
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}
	if v, _ := c.Get("k"); v.(int) != 2 {
		t.Fatalf("expected overwrite to win, got %v", v)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New(WithMaxSize(64))
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := fmt.Sprintf("k%d", i%32)
				c.Set(k, g, 0)
				c.Get(k)
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 64 {
		t.Fatalf("bound violated: %d", c.Len())
	}
}

func TestConcurrentGetSetSameKey(t *testing.T) {
	// Overwriting Set mutates the entry in place, so Get must copy the value
	// under the lock. Run with -race to verify.
	c := New(WithMaxSize(4))
	c.Set("k", 0, 0)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				if g%2 == 0 {
					c.Set("k", i, time.Minute)
				} else if v, ok := c.Get("k"); ok {
					_ = v.(int)
				}
			}
		}(g)
	}
	wg.Wait()

	if v, ok := c.Get("k"); !ok || v.(int) < 0 {
		t.Fatalf("expected an int value present, got %v ok=%v", v, ok)
	}
}

func TestMemoizedCallsOncePerKey(t *testing.T) {
	c := New()
	calls := 0
	fn := Memoized(c, time.Minute, "sq", nil, func(_ context.Context, n int) (int, error) {
		calls++
		return n * n, nil
	})

	for i := 0; i < 3; i++ {
		v, err := fn(context.Background(), 7)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != 49 {
			t.Fatalf("expected 49, got %d", v)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 underlying call, got %d", calls)
	}

	if _, err := fn(context.Background(), 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("distinct args must call through, got %d calls", calls)
	}
}

func TestMemoizedDoesNotCacheErrors(t *testing.T) {
	c := New()
	calls := 0
	fn := Memoized(c, time.Minute, "flaky", nil, func(_ context.Context, n int) (int, error) {
		calls++
		if calls == 1 {
			return 0, fmt.Errorf("boom")
		}
		return n, nil
	})

	if _, err := fn(context.Background(), 1); err == nil {
		t.Fatalf("expected error on first call")
	}
	v, err := fn(context.Background(), 1)
	if err != nil || v != 1 {
		t.Fatalf("expected retry to succeed, got %v err=%v", v, err)
	}
	if calls != 2 {
		t.Fatalf("errors must not be cached, got %d calls", calls)
	}
}

func TestKeyBuilder(t *testing.T) {
	got := Key("ohlcv", "BTC/USDT", "1h", 100)
	if got != "ohlcv:BTC/USDT:1h:100" {
		t.Fatalf("unexpected key %q", got)
	}
}
