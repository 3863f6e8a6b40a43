package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/awslabs/osml-model-runner-sub000/api/pkg/config"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/types"
)

func TestSQLStoreSuite(t *testing.T) {
	suite.Run(t, new(SQLStoreTestSuite))
}

type SQLStoreTestSuite struct {
	suite.Suite
	ctx context.Context
	db  *SQLStore
}

func (suite *SQLStoreTestSuite) SetupTest() {
	suite.ctx = context.Background()

	store, err := NewSQLStore(config.Store{
		Driver:      "sqlite",
		Path:        filepath.Join(suite.T().TempDir(), "store.db"),
		AutoMigrate: true,
	})
	suite.Require().NoError(err)

	suite.T().Cleanup(func() {
		_ = store.Close()
	})

	suite.db = store
}

func (suite *SQLStoreTestSuite) newRecord(endpointID string) *types.JobRecord {
	jobID := uuid.NewString()
	return &types.JobRecord{
		JobID:      jobID,
		EndpointID: endpointID,
		Request: &types.ImageRequest{
			JobID:      jobID,
			EndpointID: endpointID,
			ImageURL:   "s3://imagery/test.png",
			TileSize:   512,
		},
		RequestTime: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func (suite *SQLStoreTestSuite) TestPersistAndList() {
	rec := suite.newRecord("endpoint-a")
	suite.Require().NoError(suite.db.PersistJob(suite.ctx, rec))

	records, err := suite.db.ListOutstandingJobs(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(records, 1)
	suite.Equal(rec.JobID, records[0].JobID)
	suite.Equal("endpoint-a", records[0].EndpointID)
	suite.Require().NotNil(records[0].Request)
	suite.Equal(512, records[0].Request.TileSize)
	suite.Equal(0, records[0].NumAttempts)
	suite.Equal(int64(0), records[0].LastAttempt)
}

func (suite *SQLStoreTestSuite) TestPersistDuplicateIsIgnored() {
	rec := suite.newRecord("endpoint-a")
	suite.Require().NoError(suite.db.PersistJob(suite.ctx, rec))

	// Simulate a started job, then a duplicate queue delivery of the same
	// payload. The duplicate must not reset attempt state.
	won, err := suite.db.ConditionalStartAttempt(suite.ctx, rec, time.Now())
	suite.Require().NoError(err)
	suite.Require().True(won)

	dup := *rec
	dup.NumAttempts = 0
	dup.LastAttempt = 0
	suite.Require().NoError(suite.db.PersistJob(suite.ctx, &dup))

	records, err := suite.db.ListOutstandingJobs(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(records, 1)
	suite.Equal(1, records[0].NumAttempts)
	suite.NotZero(records[0].LastAttempt)
}

func (suite *SQLStoreTestSuite) TestConditionalStartAttemptStaleRead() {
	rec := suite.newRecord("endpoint-a")
	suite.Require().NoError(suite.db.PersistJob(suite.ctx, rec))

	stale := *rec

	won, err := suite.db.ConditionalStartAttempt(suite.ctx, rec, time.Now())
	suite.Require().NoError(err)
	suite.True(won)
	suite.Equal(1, rec.NumAttempts)

	// The second caller read the record before the first one started it.
	won, err = suite.db.ConditionalStartAttempt(suite.ctx, &stale, time.Now())
	suite.Require().NoError(err)
	suite.False(won)
	suite.Equal(0, stale.NumAttempts)
}

func (suite *SQLStoreTestSuite) TestConditionalStartAttemptRace() {
	rec := suite.newRecord("endpoint-a")
	suite.Require().NoError(suite.db.PersistJob(suite.ctx, rec))

	const workers = 8
	var wg sync.WaitGroup
	wins := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		snapshot := *rec
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := suite.db.ConditionalStartAttempt(suite.ctx, &snapshot, time.Now())
			suite.NoError(err)
			wins <- won
		}()
	}
	wg.Wait()
	close(wins)

	total := 0
	for won := range wins {
		if won {
			total++
		}
	}
	suite.Equal(1, total)
}

func (suite *SQLStoreTestSuite) TestMarkRegionComplete() {
	rec := suite.newRecord("endpoint-a")
	regionCount := 2
	rec.RegionCount = &regionCount
	suite.Require().NoError(suite.db.PersistJob(suite.ctx, rec))

	suite.Require().NoError(suite.db.MarkRegionComplete(suite.ctx, rec.JobID, "r0c0"))
	// Duplicate completions collapse to one entry.
	suite.Require().NoError(suite.db.MarkRegionComplete(suite.ctx, rec.JobID, "r0c0"))
	suite.Require().NoError(suite.db.MarkRegionComplete(suite.ctx, rec.JobID, "r0c1"))

	records, err := suite.db.ListOutstandingJobs(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(records, 1)
	suite.ElementsMatch([]string{"r0c0", "r0c1"}, records[0].RegionsComplete)
	suite.True(records[0].Complete())

	suite.ErrorIs(suite.db.MarkRegionComplete(suite.ctx, "no-such-job", "r0c0"), ErrNotFound)
}

func (suite *SQLStoreTestSuite) TestDeleteJob() {
	rec := suite.newRecord("endpoint-a")
	suite.Require().NoError(suite.db.PersistJob(suite.ctx, rec))
	suite.Require().NoError(suite.db.DeleteJob(suite.ctx, rec.JobID))

	records, err := suite.db.ListOutstandingJobs(suite.ctx)
	suite.Require().NoError(err)
	suite.Empty(records)
}

func (suite *SQLStoreTestSuite) TestSendToDeadLetter() {
	suite.Require().NoError(suite.db.SendToDeadLetter(suite.ctx, `{"job_id":"x"}`, "invalid payload"))
	suite.Require().NoError(suite.db.SendToDeadLetter(suite.ctx, `{"job_id":"y"}`, "retries exhausted"))

	count, err := suite.db.CountDeadLetters(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(int64(2), count)
}
