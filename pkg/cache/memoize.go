package cache

import (
	"context"
	"fmt"
	"time"
)

// KeyFunc derives the cache key for one set of call arguments.
type KeyFunc[A any] func(args A) string

// Memoized wraps fn so each distinct key is computed at most once per TTL
// window. When key is nil, the key is the prefix plus a stable rendering of
// the arguments. Errors are returned to the caller and never cached.
//
// Concurrent misses for the same key are not deduplicated: both callers may
// run fn and the later Set wins.
func Memoized[A, R any](c *Cache, ttl time.Duration, prefix string, key KeyFunc[A], fn func(context.Context, A) (R, error)) func(context.Context, A) (R, error) {
	if key == nil {
		key = func(args A) string { return Key(prefix, fmt.Sprintf("%+v", args)) }
	}
	return func(ctx context.Context, args A) (R, error) {
		k := key(args)
		if v, ok := c.Get(k); ok {
			if r, ok := v.(R); ok {
				return r, nil
			}
		}
		r, err := fn(ctx, args)
		if err != nil {
			var zero R
			return zero, err
		}
		c.Set(k, r, ttl)
		return r, nil
	}
}
