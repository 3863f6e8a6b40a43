package endpoint

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/awslabs/osml-model-runner-sub000/api/pkg/types"
)

// TTLCache is a size-bounded cache with two layers: a fresh layer whose
// entries expire after the TTL, and a fallback layer that keeps the last
// known value indefinitely (still size-bounded). The fallback is what lets
// capacity estimation prefer stale data over refusing to schedule when the
// metadata provider is down.
type TTLCache[T any] struct {
	fresh    *ristretto.Cache[string, T]
	fallback *ristretto.Cache[string, T]
	ttl      time.Duration
}

func NewTTLCache[T any](ttl time.Duration, maxEntries int64) (*TTLCache[T], error) {
	newLayer := func() (*ristretto.Cache[string, T], error) {
		return ristretto.NewCache(&ristretto.Config[string, T]{
			NumCounters: maxEntries * 10,
			MaxCost:     maxEntries,
			BufferItems: 64,
		})
	}

	fresh, err := newLayer()
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	fallback, err := newLayer()
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	return &TTLCache[T]{fresh: fresh, fallback: fallback, ttl: ttl}, nil
}

// Get returns a value from the fresh layer.
func (c *TTLCache[T]) Get(key string) (T, bool) {
	return c.fresh.Get(key)
}

// GetStale returns the last known value regardless of age.
func (c *TTLCache[T]) GetStale(key string) (T, bool) {
	return c.fallback.Get(key)
}

func (c *TTLCache[T]) Set(key string, value T) {
	c.fresh.SetWithTTL(key, value, 1, c.ttl)
	c.fallback.Set(key, value, 1)
	// Ristretto applies writes asynchronously; flush so a Get right after a
	// Set observes the value.
	c.fresh.Wait()
	c.fallback.Wait()
}

func (c *TTLCache[T]) Close() {
	c.fresh.Close()
	c.fallback.Close()
}

// MetadataCache holds endpoint descriptors keyed by endpoint name and tag
// maps keyed by endpoint resource ID. Process-local, never persisted.
type MetadataCache struct {
	Endpoints *TTLCache[*types.EndpointInfo]
	Tags      *TTLCache[map[string]string]
}

func NewMetadataCache(ttl time.Duration, maxEntries int64) (*MetadataCache, error) {
	endpoints, err := NewTTLCache[*types.EndpointInfo](ttl, maxEntries)
	if err != nil {
		return nil, err
	}
	tags, err := NewTTLCache[map[string]string](ttl, maxEntries)
	if err != nil {
		return nil, err
	}
	return &MetadataCache{Endpoints: endpoints, Tags: tags}, nil
}

func (c *MetadataCache) Close() {
	c.Endpoints.Close()
	c.Tags.Close()
}
