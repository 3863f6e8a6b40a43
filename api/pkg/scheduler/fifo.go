package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/awslabs/osml-model-runner-sub000/api/pkg/config"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/store"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/types"
)

// FIFOScheduler starts the oldest visible job regardless of endpoint load.
// Useful for single-endpoint deployments and as a baseline when debugging
// load-balancing behavior.
type FIFOScheduler struct {
	source RequestSource
	store  store.Store
	cfg    config.Scheduler
	now    func() time.Time
}

var _ Scheduler = &FIFOScheduler{}

func NewFIFOScheduler(params Params) (*FIFOScheduler, error) {
	if params.Source == nil {
		return nil, errors.New("request source is required")
	}
	if params.Store == nil {
		return nil, errors.New("store is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &FIFOScheduler{
		source: params.Source,
		store:  params.Store,
		cfg:    params.Config,
		now:    now,
	}, nil
}

func (s *FIFOScheduler) GetNextScheduledRequest(ctx context.Context) (*types.ImageRequest, error) {
	outstanding, err := s.source.GetOutstandingRequests(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch outstanding requests")
		return nil, nil
	}

	now := s.now()
	var oldest *types.JobRecord
	for _, record := range outstanding {
		if !record.Visible(s.cfg.RetryWindow, now) {
			continue
		}
		if oldest == nil || record.RequestTime.Before(oldest.RequestTime) {
			oldest = record
		}
	}
	if oldest == nil {
		return nil, nil
	}

	won, err := s.store.ConditionalStartAttempt(ctx, oldest, now)
	if err != nil {
		log.Error().Err(err).Str("job_id", oldest.JobID).Msg("conditional start attempt failed")
		return nil, nil
	}
	if !won {
		return nil, nil
	}

	log.Info().Str("job_id", oldest.JobID).Msg("image request scheduled (fifo)")
	return oldest.Request, nil
}

func (s *FIFOScheduler) FinishRequest(_ *types.ImageRequest, _ bool) {}
