package cache

import (
	"context"
	"time"

	"github.com/matzehuels/socraticboard/pkg/observability"
)

// InstrumentedCache reports cache traffic to the observability hooks.
type InstrumentedCache struct {
	inner   Cache
	keyType string
}

// Instrumented wraps c so that every Get and Set emits a cache hook event
// tagged with keyType.
func Instrumented(c Cache, keyType string) *InstrumentedCache {
	return &InstrumentedCache{inner: c, keyType: keyType}
}

func (c *InstrumentedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.inner.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if ok {
		observability.Cache().OnCacheHit(ctx, c.keyType)
	} else {
		observability.Cache().OnCacheMiss(ctx, c.keyType)
	}
	return data, ok, nil
}

func (c *InstrumentedCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.inner.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, c.keyType, len(data))
	return nil
}

func (c *InstrumentedCache) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}

func (c *InstrumentedCache) Close() error {
	return c.inner.Close()
}

var _ Cache = (*InstrumentedCache)(nil)
