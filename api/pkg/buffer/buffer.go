package buffer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/awslabs/osml-model-runner-sub000/api/pkg/config"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/endpoint"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/queue"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/store"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/tiling"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/types"
)

// RequestBuffer maintains a lookahead window of outstanding jobs in the
// durable store, decoupling scheduling decisions from the external queue's
// delivery cadence. It purges finished and permanently failed jobs, tops the
// window up from the queue, and enriches new jobs (variant pinning, region
// counts) before they become schedulable.
type RequestBuffer struct {
	store    store.Store
	queue    queue.Queue
	selector *endpoint.VariantSelector // optional
	regions  tiling.RegionCalculator   // optional
	cfg      config.Buffer

	now func() time.Time

	mu        sync.Mutex
	lastKept  []*types.JobRecord
	lastGauge time.Time
}

type Params struct {
	Store            store.Store
	Queue            queue.Queue
	VariantSelector  *endpoint.VariantSelector
	RegionCalculator tiling.RegionCalculator
	Config           config.Buffer

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewRequestBuffer(params Params) (*RequestBuffer, error) {
	if params.Store == nil {
		return nil, errors.New("store is required")
	}
	if params.Queue == nil {
		return nil, errors.New("queue is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &RequestBuffer{
		store:    params.Store,
		queue:    params.Queue,
		selector: params.VariantSelector,
		regions:  params.RegionCalculator,
		cfg:      params.Config,
		now:      now,
	}, nil
}

// GetOutstandingRequests returns the current buffered job set after purging
// and topping up. Infrastructure failures degrade to the last successfully
// retained set: the scheduler treats "no work" and "store hiccup" the same
// way, by doing nothing this cycle.
func (b *RequestBuffer) GetOutstandingRequests(ctx context.Context) ([]*types.JobRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	records, err := b.store.ListOutstandingJobs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list outstanding jobs, returning last known set")
		return append([]*types.JobRecord{}, b.lastKept...), nil
	}

	retained := b.purge(ctx, records)

	if len(retained) < b.cfg.LookaheadSize {
		retained = append(retained, b.topUp(ctx, b.cfg.LookaheadSize-len(retained))...)
	}

	b.lastKept = retained
	b.emitGauges(retained)

	return append([]*types.JobRecord{}, retained...), nil
}

// purge drops completed jobs and dead-letters jobs that exhausted their retry
// budget. Records the store fails to delete stay retained; the next cycle
// retries the purge.
func (b *RequestBuffer) purge(ctx context.Context, records []*types.JobRecord) []*types.JobRecord {
	now := b.now()
	retained := make([]*types.JobRecord, 0, len(records))

	for _, record := range records {
		switch {
		case record.Complete():
			log.Info().
				Str("job_id", record.JobID).
				Int("regions", len(record.RegionsComplete)).
				Msg("image request complete, removing from buffer")
			if err := b.store.DeleteJob(ctx, record.JobID); err != nil {
				log.Error().Err(err).Str("job_id", record.JobID).Msg("failed to delete completed job")
				retained = append(retained, record)
			}

		case record.NumAttempts >= b.cfg.MaxRetryAttempts && record.Visible(b.cfg.RetryWindow, now):
			log.Warn().
				Str("job_id", record.JobID).
				Int("attempts", record.NumAttempts).
				Msg("image request exhausted retries, dead-lettering")
			if err := b.store.SendToDeadLetter(ctx, record.RawPayload, "retries exhausted"); err != nil {
				log.Error().Err(err).Str("job_id", record.JobID).Msg("failed to dead-letter job")
				retained = append(retained, record)
				continue
			}
			if err := b.store.DeleteJob(ctx, record.JobID); err != nil {
				log.Error().Err(err).Str("job_id", record.JobID).Msg("failed to delete dead-lettered job")
				retained = append(retained, record)
			}

		default:
			retained = append(retained, record)
		}
	}

	return retained
}

// topUp pulls up to max new messages from the queue and moves them into the
// durable store. Persist happens before queue delete, so a crash in between
// yields a harmless duplicate rather than a lost job.
func (b *RequestBuffer) topUp(ctx context.Context, max int) []*types.JobRecord {
	messages, err := b.queue.ReceiveBatch(ctx, max)
	if err != nil {
		log.Error().Err(err).Msg("failed to receive image requests from queue")
		return nil
	}

	var added []*types.JobRecord
	for _, msg := range messages {
		record, ok := b.admit(ctx, msg)
		if !ok {
			continue
		}
		added = append(added, record)
	}
	return added
}

// admit validates and enriches one queue message. Returns false if the
// message did not become a buffered record, whether dead-lettered or left on
// the queue for redelivery.
func (b *RequestBuffer) admit(ctx context.Context, msg *queue.Message) (*types.JobRecord, bool) {
	req, err := types.ParseImageRequest(msg.Data)
	if err != nil {
		log.Warn().Err(err).Str("message_id", msg.ID).Msg("invalid image request, dead-lettering")
		b.deadLetter(ctx, msg, "invalid payload: "+err.Error())
		return nil, false
	}

	// Pin a variant before any capacity planning sees the request.
	if b.selector != nil {
		b.selector.SelectVariant(ctx, req)
	}

	record := &types.JobRecord{
		JobID:       req.JobID,
		EndpointID:  req.EndpointID,
		Request:     req,
		RawPayload:  string(msg.Data),
		RequestTime: b.now(),
	}

	if b.regions != nil {
		regions, err := b.regions.CalculateRegions(ctx, req)
		if err != nil {
			if errors.Is(err, types.ErrUnreadableImage) {
				// An unschedulable job would occupy buffer space forever.
				log.Warn().Err(err).Str("job_id", req.JobID).Msg("image unreadable, dead-lettering")
				b.deadLetter(ctx, msg, "image unreadable: "+err.Error())
				return nil, false
			}
			// Transient failure: leave the message on the queue and let
			// redelivery try again.
			log.Error().Err(err).Str("job_id", req.JobID).Msg("region calculation failed, will retry")
			return nil, false
		}
		count := len(regions)
		record.RegionCount = &count
	}

	if err := b.store.PersistJob(ctx, record); err != nil {
		log.Error().Err(err).Str("job_id", req.JobID).Msg("failed to persist job record, will retry")
		return nil, false
	}
	if err := b.queue.Delete(ctx, msg); err != nil {
		// The record is durable; a redelivery will hit the duplicate guard.
		log.Warn().Err(err).Str("job_id", req.JobID).Msg("failed to delete queue message after persist")
	}

	log.Info().
		Str("job_id", req.JobID).
		Str("endpoint_id", req.EndpointID).
		Str("target_variant", req.TargetVariant()).
		Msg("buffered image request")

	return record, true
}

func (b *RequestBuffer) deadLetter(ctx context.Context, msg *queue.Message, reason string) {
	if err := b.store.SendToDeadLetter(ctx, string(msg.Data), reason); err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("failed to dead-letter message")
		return
	}
	if err := b.queue.Delete(ctx, msg); err != nil {
		log.Warn().Err(err).Str("message_id", msg.ID).Msg("failed to delete dead-lettered message")
	}
}

// emitGauges logs buffered and visible counts, rate-limited to one emission
// per configured interval.
func (b *RequestBuffer) emitGauges(retained []*types.JobRecord) {
	now := b.now()
	if b.cfg.GaugeInterval > 0 && now.Sub(b.lastGauge) < b.cfg.GaugeInterval {
		return
	}
	b.lastGauge = now

	visible := 0
	for _, record := range retained {
		if record.Visible(b.cfg.RetryWindow, now) {
			visible++
		}
	}

	log.Info().
		Int("buffered_count", len(retained)).
		Int("visible_count", visible).
		Msg("request buffer gauges")
}
