package endpoint

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/exp/rand"

	"github.com/awslabs/osml-model-runner-sub000/api/pkg/types"
)

// panicSource fails the test if the selector draws randomness when it should
// not (explicit pins, single-variant endpoints).
type panicSource struct{}

func (panicSource) Uint64() uint64 { panic("unexpected random draw") }
func (panicSource) Seed(uint64)    {}

func newRequest(endpointID string) *types.ImageRequest {
	return &types.ImageRequest{
		JobID:      "job-1",
		EndpointID: endpointID,
		ImageURL:   "s3://imagery/test.png",
		TileSize:   512,
	}
}

func TestSelectVariantHonorsExplicitPin(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockMetadataProvider(ctrl)

	selector := NewVariantSelector(provider, newTestCache(t), rand.New(panicSource{}))

	req := newRequest("aircraft-detector")
	req.PinVariant("pinned-by-hand")
	selector.SelectVariant(context.Background(), req)

	require.Equal(t, "pinned-by-hand", req.TargetVariant())
}

func TestSelectVariantSkipsHTTPEndpoints(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockMetadataProvider(ctrl)

	selector := NewVariantSelector(provider, newTestCache(t), rand.New(panicSource{}))

	req := newRequest("http://models.internal:8080/detect")
	selector.SelectVariant(context.Background(), req)

	require.Empty(t, req.TargetVariant())
}

func TestSelectVariantFailsOpenOnMetadataError(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockMetadataProvider(ctrl)
	provider.EXPECT().DescribeEndpoint(gomock.Any(), "aircraft-detector").
		Return(nil, errors.New("throttled")).Times(3)

	selector := NewVariantSelector(provider, newTestCache(t), rand.New(panicSource{}))

	req := newRequest("aircraft-detector")
	selector.SelectVariant(context.Background(), req)

	require.Empty(t, req.TargetVariant())
}

func TestSelectVariantSingleVariantSkipsDraw(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockMetadataProvider(ctrl)
	provider.EXPECT().DescribeEndpoint(gomock.Any(), "aircraft-detector").Return(&types.EndpointInfo{
		Name: "aircraft-detector",
		Variants: []types.VariantInfo{
			{Name: "only", Weight: 1, InstanceCount: 1},
		},
	}, nil)

	selector := NewVariantSelector(provider, newTestCache(t), rand.New(panicSource{}))

	req := newRequest("aircraft-detector")
	selector.SelectVariant(context.Background(), req)

	require.Equal(t, "only", req.TargetVariant())
}

func TestSelectVariantWeightedConvergence(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockMetadataProvider(ctrl)
	provider.EXPECT().DescribeEndpoint(gomock.Any(), "aircraft-detector").Return(&types.EndpointInfo{
		Name: "aircraft-detector",
		Variants: []types.VariantInfo{
			{Name: "a", Weight: 1, InstanceCount: 1},
			{Name: "b", Weight: 3, InstanceCount: 1},
		},
	}, nil) // cached after the first draw

	selector := NewVariantSelector(provider, newTestCache(t), rand.New(rand.NewSource(42)))
	ctx := context.Background()

	const draws = 20000
	counts := map[string]int{}
	for i := 0; i < draws; i++ {
		req := newRequest("aircraft-detector")
		selector.SelectVariant(ctx, req)
		require.NotEmpty(t, req.TargetVariant())
		counts[req.TargetVariant()]++
	}

	ratio := float64(counts["b"]) / float64(draws)
	require.InDelta(t, 0.75, ratio, 0.02)
	require.Equal(t, draws, counts["a"]+counts["b"])
}

func TestSelectVariantZeroWeightsFailOpen(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockMetadataProvider(ctrl)
	provider.EXPECT().DescribeEndpoint(gomock.Any(), "aircraft-detector").Return(&types.EndpointInfo{
		Name: "aircraft-detector",
		Variants: []types.VariantInfo{
			{Name: "a", Weight: 0, InstanceCount: 1},
			{Name: "b", Weight: 0, InstanceCount: 1},
		},
	}, nil)

	selector := NewVariantSelector(provider, newTestCache(t), rand.New(panicSource{}))

	req := newRequest("aircraft-detector")
	selector.SelectVariant(context.Background(), req)

	require.Empty(t, req.TargetVariant())
}
