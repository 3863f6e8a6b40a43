package scheduler

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog/log"

	"github.com/awslabs/osml-model-runner-sub000/api/pkg/config"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/endpoint"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/store"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/types"
)

// capacityDecision is the outcome of the capacity check for a candidate job.
type capacityDecision int

const (
	decisionProceed capacityDecision = iota
	decisionDefer
)

// LoadBalancingScheduler starts the oldest visible job on the least-loaded
// endpoint tier, throttled so that no endpoint takes more concurrent load
// than its estimated capacity allows. Many worker processes run this
// concurrently against the same store; at-most-one-start is enforced by the
// store's conditional update, not by anything in here.
type LoadBalancingScheduler struct {
	source    RequestSource
	store     store.Store
	estimator *endpoint.CapacityEstimator // nil disables throttling
	cfg       config.Scheduler

	// instanceCounts holds the last resolved instance count per endpoint,
	// read back when logging scheduling outcomes so a decision and the
	// fleet size it was based on appear together.
	instanceCounts *xsync.MapOf[string, int]

	now func() time.Time
}

var _ Scheduler = &LoadBalancingScheduler{}

type Params struct {
	Source    RequestSource
	Store     store.Store
	Estimator *endpoint.CapacityEstimator
	Config    config.Scheduler

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewLoadBalancingScheduler(params Params) (*LoadBalancingScheduler, error) {
	if params.Source == nil {
		return nil, errors.New("request source is required")
	}
	if params.Store == nil {
		return nil, errors.New("store is required")
	}
	if err := params.Config.Validate(); err != nil {
		return nil, err
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &LoadBalancingScheduler{
		source:         params.Source,
		store:          params.Store,
		estimator:      params.Estimator,
		cfg:            params.Config,
		instanceCounts: xsync.NewMapOf[string, int](),
		now:            now,
	}, nil
}

func (s *LoadBalancingScheduler) GetNextScheduledRequest(ctx context.Context) (*types.ImageRequest, error) {
	outstanding, err := s.source.GetOutstandingRequests(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch outstanding requests")
		return nil, nil
	}
	if len(outstanding) == 0 {
		return nil, nil
	}

	summaries := s.summarize(ctx, outstanding)
	candidate, tier := s.selectCandidate(summaries)
	if candidate == nil {
		return nil, nil
	}

	if s.estimator != nil && s.cfg.ThrottlingEnabled {
		switch s.checkCapacity(ctx, candidate, tier) {
		case decisionProceed:
		case decisionDefer:
			// Not marked as attempted: the job stays visible for a future
			// cycle when capacity frees up.
			instances, _ := s.instanceCounts.Load(candidate.EndpointID)
			log.Debug().
				Str("job_id", candidate.JobID).
				Str("endpoint_id", candidate.EndpointID).
				Int("endpoint_instances", instances).
				Msg("deferring job, endpoint at capacity")
			return nil, nil
		}
	}

	won, err := s.store.ConditionalStartAttempt(ctx, candidate, s.now())
	if err != nil {
		log.Error().Err(err).Str("job_id", candidate.JobID).Msg("conditional start attempt failed")
		return nil, nil
	}
	if !won {
		// Another worker started this job between our read and our write.
		log.Debug().Str("job_id", candidate.JobID).Msg("lost start race, yielding this cycle")
		return nil, nil
	}

	instances, _ := s.instanceCounts.Load(candidate.EndpointID)
	log.Info().
		Str("job_id", candidate.JobID).
		Str("endpoint_id", candidate.EndpointID).
		Int("attempt", candidate.NumAttempts).
		Int("endpoint_instances", instances).
		Msg("image request scheduled")

	return candidate.Request, nil
}

// FinishRequest is a no-op: job lifecycle is fully owned by the request
// buffer's purge logic.
func (s *LoadBalancingScheduler) FinishRequest(_ *types.ImageRequest, _ bool) {}

// summarize groups the outstanding set by endpoint and computes each group's
// current load.
func (s *LoadBalancingScheduler) summarize(ctx context.Context, outstanding []*types.JobRecord) []*EndpointUtilizationSummary {
	now := s.now()
	groups := map[string]*EndpointUtilizationSummary{}

	for _, record := range outstanding {
		group, ok := groups[record.EndpointID]
		if !ok {
			group = &EndpointUtilizationSummary{
				EndpointID:    record.EndpointID,
				InstanceCount: s.instanceCount(ctx, record.EndpointID),
			}
			groups[record.EndpointID] = group
		}
		group.Requests = append(group.Requests, record)
		if s.isRunning(record, now) {
			group.CurrentLoad += s.estimatedLoad(record)
		}
	}

	summaries := make([]*EndpointUtilizationSummary, 0, len(groups))
	for _, group := range groups {
		summaries = append(summaries, group)
	}
	return summaries
}

// selectCandidate walks endpoint groups in ascending load-factor order and
// returns the oldest visible record within the least-loaded tier. Once load
// factor strictly increases past the tier that produced the current best
// candidate, more loaded endpoints are not considered: fairness prefers idle
// endpoints even over older work elsewhere.
func (s *LoadBalancingScheduler) selectCandidate(summaries []*EndpointUtilizationSummary) (*types.JobRecord, *EndpointUtilizationSummary) {
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LoadFactor() < summaries[j].LoadFactor()
	})

	now := s.now()
	var best *types.JobRecord
	var bestTier *EndpointUtilizationSummary

	for _, group := range summaries {
		if best != nil && group.LoadFactor() > bestTier.LoadFactor() {
			break
		}
		for _, record := range group.Requests {
			if !record.Visible(s.cfg.RetryWindow, now) {
				continue
			}
			if best == nil || record.RequestTime.Before(best.RequestTime) {
				best = record
				bestTier = group
			}
		}
	}

	return best, bestTier
}

// checkCapacity decides whether the candidate fits on its endpoint+variant
// under the target utilization ceiling.
func (s *LoadBalancingScheduler) checkCapacity(ctx context.Context, candidate *types.JobRecord, tier *EndpointUtilizationSummary) capacityDecision {
	variant := ""
	if candidate.Request != nil {
		variant = candidate.Request.TargetVariant()
	}

	maxCapacity := s.estimator.EstimateCapacity(ctx, candidate.EndpointID, variant)
	available := int(math.Floor(float64(maxCapacity) * s.cfg.TargetUtilization))

	now := s.now()
	otherRunning := 0
	for _, record := range tier.Requests {
		if record.JobID == candidate.JobID {
			continue
		}
		if !s.isRunning(record, now) {
			continue
		}
		if record.Request != nil && record.Request.TargetVariant() != variant {
			continue
		}
		otherRunning++
		available -= s.estimatedLoad(record)
	}
	if available < 0 {
		available = 0
	}

	required := s.estimatedLoad(candidate)
	if available >= required {
		return decisionProceed
	}

	// Single-job exception: an endpoint that would otherwise idle forever
	// because one oversized job exceeds its whole capacity must still make
	// progress. This also covers zero estimated capacity, where a deferral
	// could never clear; the attempt then burns the job's retry budget, so
	// an unplaceable job ends in the dead letter table instead of blocking
	// the scan. Best-effort only; concurrent schedulers may both see zero
	// other running jobs, and that is accepted.
	if otherRunning == 0 {
		log.Info().
			Str("job_id", candidate.JobID).
			Str("endpoint_id", candidate.EndpointID).
			Int("required", required).
			Int("capacity", maxCapacity).
			Msg("allowing oversized job on otherwise idle endpoint")
		return decisionProceed
	}

	return decisionDefer
}

// estimatedLoad is the number of concurrent model invocations a record is
// expected to hold. Unknown-size jobs that are in flight count minimally
// rather than zero so they cannot starve other endpoints.
func (s *LoadBalancingScheduler) estimatedLoad(record *types.JobRecord) int {
	if record.RegionCount != nil {
		return *record.RegionCount * s.cfg.TileWorkersPerInstance
	}
	if record.NumAttempts > 0 {
		return 1
	}
	return 0
}

// isRunning reports whether a record has been attempted and its retry window
// has not yet elapsed.
func (s *LoadBalancingScheduler) isRunning(record *types.JobRecord, now time.Time) bool {
	return record.NumAttempts > 0 && !record.Visible(s.cfg.RetryWindow, now)
}

func (s *LoadBalancingScheduler) instanceCount(ctx context.Context, endpointID string) int {
	count := 1
	if s.estimator != nil {
		count = s.estimator.InstanceCount(ctx, endpointID)
	}
	s.instanceCounts.Store(endpointID, count)
	return count
}
