package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/awslabs/osml-model-runner-sub000/api/pkg/store"
	"github.com/awslabs/osml-model-runner-sub000/api/pkg/types"
)

func TestFIFOSelectsOldestVisible(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := store.NewMockStore(ctrl)
	now := time.Now()

	records := []*types.JobRecord{
		makeRecord("newer", recordOpts{endpointID: "endpoint-a", requestTime: now.Add(-time.Minute), regionCount: 1}),
		makeRecord("oldest-but-running", recordOpts{endpointID: "endpoint-b", requestTime: now.Add(-2 * time.Hour), attempts: 1, lastAttempt: now.Add(-time.Minute), regionCount: 1}),
		makeRecord("older", recordOpts{endpointID: "endpoint-b", requestTime: now.Add(-time.Hour), regionCount: 1}),
	}

	mockStore.EXPECT().ConditionalStartAttempt(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, record *types.JobRecord, _ time.Time) (bool, error) {
			require.Equal(t, "older", record.JobID)
			return true, nil
		})

	s, err := NewFIFOScheduler(Params{
		Source: &fakeSource{records: records},
		Store:  mockStore,
		Config: testSchedulerConfig(),
	})
	require.NoError(t, err)

	req, err := s.GetNextScheduledRequest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, req)
	require.Equal(t, "older", req.JobID)
}

func TestFIFORaceLostYields(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := store.NewMockStore(ctrl)
	now := time.Now()

	records := []*types.JobRecord{
		makeRecord("pending", recordOpts{endpointID: "endpoint-a", requestTime: now.Add(-time.Minute), regionCount: 1}),
	}

	mockStore.EXPECT().ConditionalStartAttempt(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(false, nil)

	s, err := NewFIFOScheduler(Params{
		Source: &fakeSource{records: records},
		Store:  mockStore,
		Config: testSchedulerConfig(),
	})
	require.NoError(t, err)

	req, err := s.GetNextScheduledRequest(context.Background())
	require.NoError(t, err)
	require.Nil(t, req)
}

func TestFIFOEmptyReturnsNil(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := store.NewMockStore(ctrl)

	s, err := NewFIFOScheduler(Params{
		Source: &fakeSource{},
		Store:  mockStore,
		Config: testSchedulerConfig(),
	})
	require.NoError(t, err)

	req, err := s.GetNextScheduledRequest(context.Background())
	require.NoError(t, err)
	require.Nil(t, req)
}
