package endpoint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/awslabs/osml-model-runner-sub000/api/pkg/config"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/types"
)

func testCapacityConfig() config.Capacity {
	return config.Capacity{
		DefaultCapacity:        10,
		PerInstanceConcurrency: 4,
		ConcurrencyTagKey:      "per-instance-concurrency",
		MetadataTTL:            300 * time.Second,
		MetadataCacheSize:      100,
	}
}

func newTestCache(t *testing.T) *MetadataCache {
	t.Helper()
	cache, err := NewMetadataCache(300*time.Second, 100)
	require.NoError(t, err)
	t.Cleanup(cache.Close)
	return cache
}

func TestEstimateCapacityHTTPEndpoint(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockMetadataProvider(ctrl)
	// No metadata call is ever made for plain addresses.

	estimator := NewCapacityEstimator(provider, newTestCache(t), testCapacityConfig())

	got := estimator.EstimateCapacity(context.Background(), "https://models.internal:8080/detect", "any-variant")
	require.Equal(t, 10, got)
}

func TestEstimateCapacityFixedInstances(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockMetadataProvider(ctrl)
	provider.EXPECT().DescribeEndpoint(gomock.Any(), "aircraft-detector").Return(&types.EndpointInfo{
		Name:       "aircraft-detector",
		ResourceID: "ep-123",
		Variants: []types.VariantInfo{
			{Name: "primary", Weight: 1, InstanceCount: 3},
		},
	}, nil)
	provider.EXPECT().ListTags(gomock.Any(), "ep-123").Return(map[string]string{}, nil)

	estimator := NewCapacityEstimator(provider, newTestCache(t), testCapacityConfig())

	got := estimator.EstimateCapacity(context.Background(), "aircraft-detector", "")
	require.Equal(t, 12, got) // 3 instances x 4 default concurrency
}

func TestEstimateCapacityTagOverride(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockMetadataProvider(ctrl)
	provider.EXPECT().DescribeEndpoint(gomock.Any(), "aircraft-detector").Return(&types.EndpointInfo{
		Name:       "aircraft-detector",
		ResourceID: "ep-123",
		Variants: []types.VariantInfo{
			{Name: "primary", Weight: 1, InstanceCount: 2},
		},
	}, nil)
	provider.EXPECT().ListTags(gomock.Any(), "ep-123").Return(map[string]string{
		"per-instance-concurrency": "7",
	}, nil)

	estimator := NewCapacityEstimator(provider, newTestCache(t), testCapacityConfig())

	got := estimator.EstimateCapacity(context.Background(), "aircraft-detector", "primary")
	require.Equal(t, 14, got)
}

func TestEstimateCapacityUnparseableTagFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockMetadataProvider(ctrl)
	provider.EXPECT().DescribeEndpoint(gomock.Any(), "aircraft-detector").Return(&types.EndpointInfo{
		Name:       "aircraft-detector",
		ResourceID: "ep-123",
		Variants: []types.VariantInfo{
			{Name: "primary", Weight: 1, InstanceCount: 2},
		},
	}, nil)
	provider.EXPECT().ListTags(gomock.Any(), "ep-123").Return(map[string]string{
		"per-instance-concurrency": "lots",
	}, nil)

	estimator := NewCapacityEstimator(provider, newTestCache(t), testCapacityConfig())

	got := estimator.EstimateCapacity(context.Background(), "aircraft-detector", "")
	require.Equal(t, 8, got)
}

func TestEstimateCapacityServerlessAndSum(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockMetadataProvider(ctrl)
	provider.EXPECT().DescribeEndpoint(gomock.Any(), "mixed-endpoint").Return(&types.EndpointInfo{
		Name: "mixed-endpoint",
		Variants: []types.VariantInfo{
			{Name: "fixed", Weight: 1, InstanceCount: 2},
			{Name: "burst", Weight: 1, Serverless: true, MaxConcurrency: 50},
		},
	}, nil)

	estimator := NewCapacityEstimator(provider, newTestCache(t), testCapacityConfig())
	ctx := context.Background()

	require.Equal(t, 58, estimator.EstimateCapacity(ctx, "mixed-endpoint", ""))
	// Descriptor is cached now, no further provider calls.
	require.Equal(t, 50, estimator.EstimateCapacity(ctx, "mixed-endpoint", "burst"))
	require.Equal(t, 8, estimator.EstimateCapacity(ctx, "mixed-endpoint", "fixed"))
}

func TestEstimateCapacityUnknownVariant(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockMetadataProvider(ctrl)
	provider.EXPECT().DescribeEndpoint(gomock.Any(), "aircraft-detector").Return(&types.EndpointInfo{
		Name: "aircraft-detector",
		Variants: []types.VariantInfo{
			{Name: "primary", Weight: 1, InstanceCount: 2},
		},
	}, nil)

	estimator := NewCapacityEstimator(provider, newTestCache(t), testCapacityConfig())

	require.Equal(t, 0, estimator.EstimateCapacity(context.Background(), "aircraft-detector", "no-such-variant"))
}

func TestEstimateCapacityStaleFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockMetadataProvider(ctrl)

	cache := newTestCache(t)
	// A previous process lifetime populated the fallback layer but the fresh
	// entry has expired.
	cache.Endpoints.fallback.Set("aircraft-detector", &types.EndpointInfo{
		Name: "aircraft-detector",
		Variants: []types.VariantInfo{
			{Name: "primary", Weight: 1, InstanceCount: 5},
		},
	}, 1)
	cache.Endpoints.fallback.Wait()

	provider.EXPECT().DescribeEndpoint(gomock.Any(), "aircraft-detector").
		Return(nil, errors.New("throttled")).Times(3)

	estimator := NewCapacityEstimator(provider, newTestCache(t), testCapacityConfig())
	estimator.cache = cache

	got := estimator.EstimateCapacity(context.Background(), "aircraft-detector", "")
	require.Equal(t, 20, got) // stale value wins over the default of 10
}

func TestEstimateCapacityDefaultWhenNothingCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockMetadataProvider(ctrl)
	provider.EXPECT().DescribeEndpoint(gomock.Any(), "aircraft-detector").
		Return(nil, errors.New("throttled")).Times(3)

	estimator := NewCapacityEstimator(provider, newTestCache(t), testCapacityConfig())

	got := estimator.EstimateCapacity(context.Background(), "aircraft-detector", "")
	require.Equal(t, 10, got)
}

func TestInstanceCount(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockMetadataProvider(ctrl)
	provider.EXPECT().DescribeEndpoint(gomock.Any(), "aircraft-detector").Return(&types.EndpointInfo{
		Name: "aircraft-detector",
		Variants: []types.VariantInfo{
			{Name: "a", Weight: 1, InstanceCount: 2},
			{Name: "b", Weight: 1, InstanceCount: 3},
		},
	}, nil)

	estimator := NewCapacityEstimator(provider, newTestCache(t), testCapacityConfig())
	ctx := context.Background()

	require.Equal(t, 1, estimator.InstanceCount(ctx, "http://models.internal:8080"))
	require.Equal(t, 5, estimator.InstanceCount(ctx, "aircraft-detector"))
}
