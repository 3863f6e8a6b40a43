package modelrunner

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/awslabs/osml-model-runner-sub000/api/pkg/buffer"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/config"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/endpoint"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/queue"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/scheduler"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/store"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/system"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/tiling"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the model runner worker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return err
			}
			return serve(cmd, cfg)
		},
	}
}

func serve(cmd *cobra.Command, cfg config.ServerConfig) error {
	system.SetupLogging()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	jobStore, err := store.NewSQLStore(cfg.Store)
	if err != nil {
		return err
	}
	defer jobStore.Close()

	requestQueue, err := queue.NewNatsQueue(ctx, cfg.Queue)
	if err != nil {
		return err
	}
	defer requestQueue.Close()

	imageBucket, err := blob.OpenBucket(ctx, cfg.ImageStore.BucketURL)
	if err != nil {
		return fmt.Errorf("failed to open image bucket: %w", err)
	}
	defer imageBucket.Close()
	regionCalculator := tiling.NewBlobRegionCalculator(imageBucket)

	var selector *endpoint.VariantSelector
	var estimator *endpoint.CapacityEstimator
	if cfg.Endpoints.MetadataFile != "" {
		provider, err := endpoint.NewFileProvider(cfg.Endpoints.MetadataFile)
		if err != nil {
			return err
		}
		cache, err := endpoint.NewMetadataCache(cfg.Capacity.MetadataTTL, cfg.Capacity.MetadataCacheSize)
		if err != nil {
			return err
		}
		defer cache.Close()

		selector = endpoint.NewVariantSelector(provider, cache, nil)
		estimator = endpoint.NewCapacityEstimator(provider, cache, cfg.Capacity)
	} else {
		log.Warn().Msg("no endpoint metadata file configured, capacity falls back to defaults")
	}

	requestBuffer, err := buffer.NewRequestBuffer(buffer.Params{
		Store:            jobStore,
		Queue:            requestQueue,
		VariantSelector:  selector,
		RegionCalculator: regionCalculator,
		Config:           cfg.Buffer,
	})
	if err != nil {
		return err
	}

	var sched scheduler.Scheduler
	switch cfg.Scheduler.Strategy {
	case "fifo":
		sched, err = scheduler.NewFIFOScheduler(scheduler.Params{
			Source: requestBuffer,
			Store:  jobStore,
			Config: cfg.Scheduler,
		})
	default:
		sched, err = scheduler.NewLoadBalancingScheduler(scheduler.Params{
			Source:    requestBuffer,
			Store:     jobStore,
			Estimator: estimator,
			Config:    cfg.Scheduler,
		})
	}
	if err != nil {
		return err
	}

	if deadLetters, err := jobStore.CountDeadLetters(ctx); err == nil && deadLetters > 0 {
		log.Warn().Int64("dead_letters", deadLetters).Msg("dead-letter table is not empty")
	}

	log.Info().
		Str("strategy", cfg.Scheduler.Strategy).
		Dur("poll_interval", cfg.Scheduler.PollInterval).
		Msg("model runner started")

	return pollLoop(ctx, sched, cfg.Scheduler.PollInterval)
}

// pollLoop drives the scheduler. Starting a job is the scheduler's only
// responsibility here; region and tile processing hang off the started job
// record via the tile-worker side of the deployment.
func pollLoop(ctx context.Context, sched scheduler.Scheduler, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("model runner stopping")
			return nil
		case <-ticker.C:
			req, err := sched.GetNextScheduledRequest(ctx)
			if err != nil {
				log.Error().Err(err).Msg("scheduling cycle failed")
				continue
			}
			if req == nil {
				continue
			}
			log.Info().
				Str("job_id", req.JobID).
				Str("endpoint_id", req.EndpointID).
				Str("image_url", req.ImageURL).
				Msg("job started")
		}
	}
}
