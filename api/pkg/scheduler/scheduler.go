package scheduler

import (
	"context"

	"github.com/awslabs/osml-model-runner-sub000/api/pkg/types"
)

// Scheduler decides which buffered image request starts next. Implementations
// are stateless between calls: every decision is derived from the durable
// store's current contents, and the store's conditional start attempt is the
// only cross-process synchronization.
type Scheduler interface {
	// GetNextScheduledRequest returns the next job to start, or nil when
	// nothing is eligible this cycle. A nil result is normal and the caller
	// should simply poll again.
	GetNextScheduledRequest(ctx context.Context) (*types.ImageRequest, error)

	// FinishRequest reports the outcome of a started job. Lifecycle is owned
	// by the request buffer's purge logic, so the load-balancing strategy
	// treats this as a no-op; the hook exists for simpler strategies that
	// track their own state.
	FinishRequest(req *types.ImageRequest, shouldRetry bool)
}

// RequestSource provides the outstanding job set, typically the request
// buffer.
type RequestSource interface {
	GetOutstandingRequests(ctx context.Context) ([]*types.JobRecord, error)
}

// EndpointUtilizationSummary is the per-endpoint load snapshot recomputed on
// every scheduling cycle.
type EndpointUtilizationSummary struct {
	EndpointID    string
	InstanceCount int
	CurrentLoad   int
	Requests      []*types.JobRecord
}

// LoadFactor normalizes load by instance count so that small and large
// endpoints rank fairly against each other.
func (s *EndpointUtilizationSummary) LoadFactor() float64 {
	return float64(s.CurrentLoad) / float64(max(1, s.InstanceCount))
}
