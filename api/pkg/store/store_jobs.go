package store

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/awslabs/osml-model-runner-sub000/api/pkg/types"
)

func (s *SQLStore) ListOutstandingJobs(ctx context.Context) ([]*types.JobRecord, error) {
	db := s.gdb.WithContext(ctx)

	var records []*types.JobRecord
	err := db.Order("request_time ASC").Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (s *SQLStore) PersistJob(ctx context.Context, record *types.JobRecord) error {
	if record.JobID == "" {
		return errors.New("job ID is required")
	}
	if record.EndpointID == "" {
		return errors.New("endpoint ID is required")
	}

	db := s.gdb.WithContext(ctx)

	// A duplicate queue delivery may race a record that is already buffered
	// or even in flight. Keep the existing row untouched in that case.
	return db.Clauses(clause.OnConflict{
		DoNothing: true,
	}).Create(record).Error
}

func (s *SQLStore) DeleteJob(ctx context.Context, jobID string) error {
	if jobID == "" {
		return errors.New("job ID is required")
	}

	db := s.gdb.WithContext(ctx)

	return db.Delete(&types.JobRecord{}, "job_id = ?", jobID).Error
}

// ConditionalStartAttempt is the at-most-one-start primitive. The WHERE
// clause matches the attempt fields as this process read them, so among any
// number of racing workers exactly one UPDATE affects a row.
func (s *SQLStore) ConditionalStartAttempt(ctx context.Context, record *types.JobRecord, now time.Time) (bool, error) {
	db := s.gdb.WithContext(ctx)

	res := db.Model(&types.JobRecord{}).
		Where("job_id = ? AND num_attempts = ? AND last_attempt = ?",
			record.JobID, record.NumAttempts, record.LastAttempt).
		Updates(map[string]interface{}{
			"num_attempts": record.NumAttempts + 1,
			"last_attempt": now.Unix(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	record.NumAttempts++
	record.LastAttempt = now.Unix()
	return true, nil
}

func (s *SQLStore) MarkRegionComplete(ctx context.Context, jobID, regionID string) error {
	db := s.gdb.WithContext(ctx)

	return db.Transaction(func(tx *gorm.DB) error {
		var record types.JobRecord
		err := tx.Where("job_id = ?", jobID).First(&record).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if slices.Contains(record.RegionsComplete, regionID) {
			return nil
		}
		record.RegionsComplete = append(record.RegionsComplete, regionID)

		return tx.Model(&types.JobRecord{}).
			Where("job_id = ?", jobID).
			Update("regions_complete", record.RegionsComplete).Error
	})
}

func (s *SQLStore) SendToDeadLetter(ctx context.Context, payload, reason string) error {
	db := s.gdb.WithContext(ctx)

	return db.Create(&types.DeadLetterRecord{
		ID:      uuid.NewString(),
		Payload: payload,
		Reason:  reason,
		Created: time.Now(),
	}).Error
}

// CountDeadLetters is an operator convenience used by the serve command's
// startup report.
func (s *SQLStore) CountDeadLetters(ctx context.Context) (int64, error) {
	db := s.gdb.WithContext(ctx)

	var count int64
	err := db.Model(&types.DeadLetterRecord{}).Count(&count).Error
	return count, err
}
