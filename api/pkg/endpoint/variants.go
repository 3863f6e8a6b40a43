package endpoint

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"github.com/awslabs/osml-model-runner-sub000/api/pkg/types"
)

// VariantSelector pins a serving variant onto requests that target a
// multi-variant endpoint without an explicit pin. Selection is weighted
// random in proportion to variant weights. Anything that prevents selection
// fails open: the request passes through unchanged and the endpoint's own
// routing decides.
type VariantSelector struct {
	provider MetadataProvider
	cache    *MetadataCache
	rng      *rand.Rand
}

func NewVariantSelector(provider MetadataProvider, cache *MetadataCache, rng *rand.Rand) *VariantSelector {
	if rng == nil {
		rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return &VariantSelector{
		provider: provider,
		cache:    cache,
		rng:      rng,
	}
}

// SelectVariant mutates req in place, pinning a variant under the
// target-variant endpoint parameter. Explicit pins are always honored.
func (s *VariantSelector) SelectVariant(ctx context.Context, req *types.ImageRequest) {
	if req.TargetVariant() != "" {
		return
	}
	if types.IsHTTPEndpoint(req.EndpointID) {
		return
	}

	info, ok := describeEndpoint(ctx, s.provider, s.cache, req.EndpointID)
	if !ok || len(info.Variants) == 0 {
		log.Warn().
			Str("job_id", req.JobID).
			Str("endpoint_id", req.EndpointID).
			Msg("no variant metadata available, leaving request unpinned")
		return
	}

	// A single variant needs no draw.
	if len(info.Variants) == 1 {
		req.PinVariant(info.Variants[0].Name)
		return
	}

	totalWeight := 0.0
	for _, v := range info.Variants {
		if v.Weight > 0 {
			totalWeight += v.Weight
		}
	}
	if totalWeight <= 0 {
		log.Warn().
			Str("endpoint_id", req.EndpointID).
			Msg("variant weights sum to zero, leaving request unpinned")
		return
	}

	draw := s.rng.Float64() * totalWeight
	for _, v := range info.Variants {
		if v.Weight <= 0 {
			continue
		}
		draw -= v.Weight
		if draw < 0 {
			req.PinVariant(v.Name)
			return
		}
	}
	// Floating point slop at the top of the range lands on the last variant.
	req.PinVariant(info.Variants[len(info.Variants)-1].Name)
}
