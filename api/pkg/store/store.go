package store

import (
	"context"
	"errors"
	"time"

	"github.com/awslabs/osml-model-runner-sub000/api/pkg/types"
)

var ErrNotFound = errors.New("not found")

//go:generate mockgen -source $GOFILE -destination store_mocks.go -package $GOPACKAGE

// Store is the durable job store shared by every worker process. The
// conditional start attempt is the only cross-process mutual exclusion
// primitive in the system.
type Store interface {
	// ListOutstandingJobs returns all buffered job records.
	ListOutstandingJobs(ctx context.Context) ([]*types.JobRecord, error)

	// PersistJob writes a record, ignoring duplicates of an already buffered
	// job. Duplicate queue deliveries are expected and harmless.
	PersistJob(ctx context.Context, record *types.JobRecord) error

	// DeleteJob removes a record by job ID.
	DeleteJob(ctx context.Context, jobID string) error

	// ConditionalStartAttempt increments the record's attempt count and sets
	// its last-attempt time to now, but only if no other process has done so
	// since the record was read. Returns true if this caller won; on success
	// the passed record is updated in place.
	ConditionalStartAttempt(ctx context.Context, record *types.JobRecord, now time.Time) (bool, error)

	// MarkRegionComplete records one finished region for a job. Called by the
	// tile-processing side as work completes.
	MarkRegionComplete(ctx context.Context, jobID, regionID string) error

	// SendToDeadLetter archives a payload that must never be retried.
	SendToDeadLetter(ctx context.Context, payload, reason string) error

	Close() error
}
