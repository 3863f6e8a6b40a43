package endpoint

import (
	"context"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/awslabs/osml-model-runner-sub000/api/pkg/config"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/types"
)

const (
	metadataRetryAttempts = 3
	metadataRetryDelay    = 200 * time.Millisecond
)

// CapacityEstimator computes the maximum concurrent-request capacity of an
// endpoint or a single variant. All metadata access degrades: fresh cache,
// then provider, then the last stale value, then configured defaults. A
// refusal to schedule is never the answer to a metadata outage.
type CapacityEstimator struct {
	provider MetadataProvider
	cache    *MetadataCache
	cfg      config.Capacity
}

func NewCapacityEstimator(provider MetadataProvider, cache *MetadataCache, cfg config.Capacity) *CapacityEstimator {
	return &CapacityEstimator{
		provider: provider,
		cache:    cache,
		cfg:      cfg,
	}
}

// EstimateCapacity returns the capacity of endpointID. With variant set, only
// that variant's share is returned (0 if the variant does not exist); with
// variant empty, capacities sum across all variants.
func (e *CapacityEstimator) EstimateCapacity(ctx context.Context, endpointID, variant string) int {
	if types.IsHTTPEndpoint(endpointID) {
		return e.cfg.DefaultCapacity
	}

	info, ok := describeEndpoint(ctx, e.provider, e.cache, endpointID)
	if !ok {
		return e.cfg.DefaultCapacity
	}

	perInstance := e.perInstanceConcurrency(ctx, info)

	if variant != "" {
		v := info.Variant(variant)
		if v == nil {
			log.Warn().
				Str("endpoint_id", endpointID).
				Str("variant", variant).
				Msg("pinned variant not found on endpoint")
			return 0
		}
		return variantCapacity(v, perInstance)
	}

	total := 0
	for i := range info.Variants {
		total += variantCapacity(&info.Variants[i], perInstance)
	}
	return total
}

// InstanceCount returns the total instance count backing an endpoint, used to
// normalize load into a load factor. Plain network endpoints and endpoints
// with no reachable metadata count as a single instance.
func (e *CapacityEstimator) InstanceCount(ctx context.Context, endpointID string) int {
	if types.IsHTTPEndpoint(endpointID) {
		return 1
	}
	info, ok := describeEndpoint(ctx, e.provider, e.cache, endpointID)
	if !ok {
		return 1
	}
	return info.TotalInstances()
}

func variantCapacity(v *types.VariantInfo, perInstance int) int {
	if v.Serverless {
		return max(0, v.MaxConcurrency)
	}
	return max(0, v.InstanceCount) * perInstance
}

// describeEndpoint resolves an endpoint descriptor: fresh cache first, then
// the provider (with retries), then the last stale value.
func describeEndpoint(ctx context.Context, provider MetadataProvider, cache *MetadataCache, name string) (*types.EndpointInfo, bool) {
	if info, ok := cache.Endpoints.Get(name); ok {
		return info, true
	}

	info, err := retry.DoWithData(func() (*types.EndpointInfo, error) {
		return provider.DescribeEndpoint(ctx, name)
	}, retry.Attempts(metadataRetryAttempts), retry.Delay(metadataRetryDelay), retry.Context(ctx))
	if err == nil {
		cache.Endpoints.Set(name, info)
		return info, true
	}

	log.Warn().Err(err).Str("endpoint_id", name).Msg("endpoint metadata fetch failed")

	if stale, ok := cache.Endpoints.GetStale(name); ok {
		return stale, true
	}
	return nil, false
}

// perInstanceConcurrency reads the per-instance concurrency override from the
// endpoint's tags, following the same cache-then-fetch-then-stale pattern as
// descriptors, independently keyed by resource ID.
func (e *CapacityEstimator) perInstanceConcurrency(ctx context.Context, info *types.EndpointInfo) int {
	if info.ResourceID == "" {
		return e.cfg.PerInstanceConcurrency
	}

	tags, ok := e.cache.Tags.Get(info.ResourceID)
	if !ok {
		fetched, err := retry.DoWithData(func() (map[string]string, error) {
			return e.provider.ListTags(ctx, info.ResourceID)
		}, retry.Attempts(metadataRetryAttempts), retry.Delay(metadataRetryDelay), retry.Context(ctx))
		if err == nil {
			e.cache.Tags.Set(info.ResourceID, fetched)
			tags = fetched
		} else {
			log.Warn().Err(err).Str("resource_id", info.ResourceID).Msg("endpoint tag fetch failed")
			tags, _ = e.cache.Tags.GetStale(info.ResourceID)
		}
	}

	if raw, ok := tags[e.cfg.ConcurrencyTagKey]; ok {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed > 0 {
			return parsed
		}
		log.Warn().
			Str("resource_id", info.ResourceID).
			Str("tag_value", raw).
			Msg("ignoring unparseable concurrency tag")
	}
	return e.cfg.PerInstanceConcurrency
}
