package types

import (
	"time"
)

// JobRecord is the durable record for a buffered image request. It is owned
// by the job store; schedulers only ever hold point-in-time snapshots.
//
// Invariant: NumAttempts == 0 exactly when LastAttempt == 0.
type JobRecord struct {
	JobID       string        `json:"job_id" gorm:"primaryKey"`
	EndpointID  string        `json:"endpoint_id" gorm:"index"`
	Request     *ImageRequest `json:"request" gorm:"type:jsonb;serializer:json"`
	RawPayload  string        `json:"raw_payload"`
	RequestTime time.Time     `json:"request_time"`

	// LastAttempt is epoch seconds of the most recent start attempt, 0 if the
	// job has never been started.
	LastAttempt int64 `json:"last_attempt"`
	NumAttempts int   `json:"num_attempts"`

	// RegionCount is nil until the region calculator has run for this image.
	RegionCount     *int     `json:"region_count"`
	RegionsComplete []string `json:"regions_complete" gorm:"type:jsonb;serializer:json"`
}

func (JobRecord) TableName() string {
	return "outstanding_jobs"
}

// Visible reports whether the record is eligible for a new start attempt:
// either it has never been attempted, or its previous attempt's retry window
// has elapsed.
func (r *JobRecord) Visible(retryWindow time.Duration, now time.Time) bool {
	return time.Unix(r.LastAttempt, 0).Add(retryWindow).Before(now)
}

// Complete reports whether every calculated region has finished.
func (r *JobRecord) Complete() bool {
	return r.RegionCount != nil && *r.RegionCount == len(r.RegionsComplete)
}

// DeadLetterRecord keeps the raw payload of a permanently failed message so
// operators can inspect why it was dropped. Dead-lettered payloads are never
// retried.
type DeadLetterRecord struct {
	ID      string    `json:"id" gorm:"primaryKey"`
	Payload string    `json:"payload"`
	Reason  string    `json:"reason"`
	Created time.Time `json:"created"`
}

func (DeadLetterRecord) TableName() string {
	return "dead_letter_messages"
}

// Region is one sub-rectangle of an image, processed independently by the
// tile workers.
type Region struct {
	ID     string `json:"id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
