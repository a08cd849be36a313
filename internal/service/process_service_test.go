package service

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/kegg-explore-api/internal/domain"
	"github.com/phrazzld/kegg-explore-api/internal/progress"
	"github.com/phrazzld/kegg-explore-api/internal/store"
	"github.com/phrazzld/kegg-explore-api/internal/task"
)

// stubProcessor satisfies task.OrganismProcessor for factory-built
// tasks that are never executed in these tests.
type stubProcessor struct{}

func (stubProcessor) ProcessOrganism(
	ctx context.Context,
	jobID string,
	organismID uuid.UUID,
) (*progress.FinalStats, error) {
	return &progress.FinalStats{}, nil
}

type processServiceFixture struct {
	organisms     *MockOrganismStore
	genes         *MockGeneStore
	progressStore *progress.MemoryStore
	runner        *MockTaskRunner
	svc           ProcessService
}

func newProcessServiceFixture(t *testing.T) *processServiceFixture {
	t.Helper()

	logger := slog.Default()
	f := &processServiceFixture{
		organisms:     &MockOrganismStore{},
		genes:         &MockGeneStore{},
		progressStore: progress.NewMemoryStore(),
		runner:        &MockTaskRunner{},
	}

	factory := task.NewOrganismProcessingTaskFactory(stubProcessor{}, time.Hour, logger)

	svc, err := NewProcessService(
		f.organisms, f.genes, f.progressStore, factory, f.runner, &sql.DB{}, logger)
	require.NoError(t, err)

	svc.(*processServiceImpl).runInTx = passthroughTx
	f.svc = svc
	return f
}

func TestProcessService_StartProcessing(t *testing.T) {
	ctx := context.Background()
	organismID := uuid.New()

	t.Run("enqueues job for idle organism", func(t *testing.T) {
		f := newProcessServiceFixture(t)
		f.organisms.On("GetByID", mock.Anything, organismID).Return(&domain.Organism{
			ID:   organismID,
			Code: "eco",
			Name: "Escherichia coli",
		}, nil)

		var submitted task.Task
		f.runner.On("Submit", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				submitted = args.Get(1).(task.Task)
			}).
			Return(nil)
		f.organisms.On("UpdateStatus", mock.Anything, organismID,
			domain.OrganismStatusPending, mock.Anything, "").Return(nil)

		result, err := f.svc.StartProcessing(ctx, organismID)
		require.NoError(t, err)
		require.NotNil(t, submitted)
		assert.Equal(t, submitted.ID().String(), result.JobID)
		assert.False(t, result.AlreadyRunning)
		assert.Contains(t, result.Message, "eco")
		f.organisms.AssertExpectations(t)
	})

	t.Run("returns existing job when already pending", func(t *testing.T) {
		f := newProcessServiceFixture(t)
		f.organisms.On("GetByID", mock.Anything, organismID).Return(&domain.Organism{
			ID:     organismID,
			Code:   "eco",
			Name:   "Escherichia coli",
			Status: domain.OrganismStatusPending,
			JobID:  "existing-job",
		}, nil)

		result, err := f.svc.StartProcessing(ctx, organismID)
		require.NoError(t, err)
		assert.Equal(t, "existing-job", result.JobID)
		assert.True(t, result.AlreadyRunning)
		f.runner.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("errored organism can be restarted", func(t *testing.T) {
		f := newProcessServiceFixture(t)
		f.organisms.On("GetByID", mock.Anything, organismID).Return(&domain.Organism{
			ID:       organismID,
			Code:     "eco",
			Name:     "Escherichia coli",
			Status:   domain.OrganismStatusError,
			JobID:    "failed-job",
			JobError: "upstream down",
		}, nil)
		f.runner.On("Submit", mock.Anything, mock.Anything).Return(nil)
		f.organisms.On("UpdateStatus", mock.Anything, organismID,
			domain.OrganismStatusPending, mock.Anything, "").Return(nil)

		result, err := f.svc.StartProcessing(ctx, organismID)
		require.NoError(t, err)
		assert.False(t, result.AlreadyRunning)
		assert.NotEqual(t, "failed-job", result.JobID)
	})

	t.Run("unknown organism maps to sentinel", func(t *testing.T) {
		f := newProcessServiceFixture(t)
		f.organisms.On("GetByID", mock.Anything, organismID).
			Return(nil, store.ErrOrganismNotFound)

		_, err := f.svc.StartProcessing(ctx, organismID)
		assert.ErrorIs(t, err, ErrOrganismNotFound)
	})
}

func TestProcessService_GetProgress(t *testing.T) {
	ctx := context.Background()
	organismID := uuid.New()

	t.Run("live job reports tracker snapshot", func(t *testing.T) {
		f := newProcessServiceFixture(t)
		jobID := "job-live"
		f.organisms.On("GetByID", mock.Anything, organismID).Return(&domain.Organism{
			ID:     organismID,
			Code:   "eco",
			Status: domain.OrganismStatusPending,
			JobID:  jobID,
		}, nil)

		tracker := progress.NewTracker(f.progressStore, jobID, slog.Default())
		require.NoError(t, tracker.Start(ctx, organismID, "eco", 4000))
		processed := 1200
		require.NoError(t, tracker.Update(ctx, progress.Update{
			Stage:          progress.StageFindingOrthologs,
			Progress:       40,
			GenesProcessed: &processed,
		}))

		status, err := f.svc.GetProgress(ctx, organismID)
		require.NoError(t, err)
		assert.Equal(t, ProcessStatusInProgress, status.Status)
		require.NotNil(t, status.Snapshot)
		assert.Equal(t, progress.StageFindingOrthologs, status.Snapshot.Stage)
		assert.Equal(t, 1200, status.Snapshot.GenesProcessed)
		assert.Equal(t, 4000, status.TotalGenes)
	})

	t.Run("finished job reports tracker final stats", func(t *testing.T) {
		f := newProcessServiceFixture(t)
		jobID := "job-done"
		f.organisms.On("GetByID", mock.Anything, organismID).Return(&domain.Organism{
			ID:     organismID,
			Code:   "eco",
			Status: domain.OrganismStatusComplete,
			JobID:  jobID,
		}, nil)

		tracker := progress.NewTracker(f.progressStore, jobID, slog.Default())
		require.NoError(t, tracker.Start(ctx, organismID, "eco", 10))
		require.NoError(t, tracker.Complete(ctx, &progress.FinalStats{
			TotalGenes:         10,
			GenesWithOrthologs: 7,
			CoveragePercent:    70,
			Method:             "KEGG_KO",
		}))

		status, err := f.svc.GetProgress(ctx, organismID)
		require.NoError(t, err)
		assert.Equal(t, ProcessStatusComplete, status.Status)
		require.NotNil(t, status.CoveragePercent)
		assert.InDelta(t, 70, *status.CoveragePercent, 0.001)
	})

	t.Run("expired tracker falls back to database counts", func(t *testing.T) {
		f := newProcessServiceFixture(t)
		f.organisms.On("GetByID", mock.Anything, organismID).Return(&domain.Organism{
			ID:     organismID,
			Code:   "eco",
			Status: domain.OrganismStatusComplete,
			JobID:  "job-expired",
		}, nil)
		f.genes.On("CountByOrganism", mock.Anything, organismID).
			Return(store.GeneCounts{Total: 3, WithOrthologs: 1}, nil)

		status, err := f.svc.GetProgress(ctx, organismID)
		require.NoError(t, err)
		assert.Equal(t, ProcessStatusComplete, status.Status)
		assert.Equal(t, 3, status.TotalGenes)
		assert.Equal(t, 1, status.GenesWithOrthologs)
		require.NotNil(t, status.CoveragePercent)
		assert.InDelta(t, 33.33, *status.CoveragePercent, 0.001)
	})

	t.Run("errored organism reports stored job error", func(t *testing.T) {
		f := newProcessServiceFixture(t)
		f.organisms.On("GetByID", mock.Anything, organismID).Return(&domain.Organism{
			ID:       organismID,
			Code:     "eco",
			Status:   domain.OrganismStatusError,
			JobError: "gene database unavailable",
		}, nil)

		status, err := f.svc.GetProgress(ctx, organismID)
		require.NoError(t, err)
		assert.Equal(t, ProcessStatusError, status.Status)
		assert.Equal(t, "gene database unavailable", status.ErrorMessage)
	})

	t.Run("pending organism without tracker entry is queued", func(t *testing.T) {
		f := newProcessServiceFixture(t)
		f.organisms.On("GetByID", mock.Anything, organismID).Return(&domain.Organism{
			ID:     organismID,
			Code:   "eco",
			Status: domain.OrganismStatusPending,
			JobID:  "job-queued",
		}, nil)

		status, err := f.svc.GetProgress(ctx, organismID)
		require.NoError(t, err)
		assert.Equal(t, ProcessStatusPending, status.Status)
		assert.NotEmpty(t, status.Message)
	})

	t.Run("unprocessed organism is not started", func(t *testing.T) {
		f := newProcessServiceFixture(t)
		f.organisms.On("GetByID", mock.Anything, organismID).Return(&domain.Organism{
			ID:   organismID,
			Code: "eco",
		}, nil)

		status, err := f.svc.GetProgress(ctx, organismID)
		require.NoError(t, err)
		assert.Equal(t, ProcessStatusNotStarted, status.Status)
	})
}

func TestProcessService_DeleteResults(t *testing.T) {
	ctx := context.Background()
	organismID := uuid.New()

	t.Run("deletes genes and resets organism", func(t *testing.T) {
		f := newProcessServiceFixture(t)
		f.organisms.On("GetByID", mock.Anything, organismID).Return(&domain.Organism{
			ID:     organismID,
			Code:   "eco",
			Status: domain.OrganismStatusComplete,
			JobID:  "job-old",
		}, nil)
		f.genes.On("DeleteByOrganism", mock.Anything, organismID).Return(int64(4600), nil)
		f.organisms.On("UpdateStatus", mock.Anything, organismID,
			domain.OrganismStatusUnset, "", "").Return(nil)

		require.NoError(t, f.svc.DeleteResults(ctx, organismID))
		f.organisms.AssertExpectations(t)
		f.genes.AssertExpectations(t)
	})

	t.Run("unknown organism maps to sentinel", func(t *testing.T) {
		f := newProcessServiceFixture(t)
		f.organisms.On("GetByID", mock.Anything, organismID).
			Return(nil, store.ErrOrganismNotFound)

		err := f.svc.DeleteResults(ctx, organismID)
		assert.ErrorIs(t, err, ErrOrganismNotFound)
		f.genes.AssertNotCalled(t, "DeleteByOrganism", mock.Anything, mock.Anything)
	})
}

func TestProcessService_ListProcesses(t *testing.T) {
	ctx := context.Background()

	older := &domain.Organism{
		ID:        uuid.New(),
		Code:      "eco",
		Name:      "Escherichia coli",
		Status:    domain.OrganismStatusComplete,
		UpdatedAt: time.Now().Add(-time.Hour),
	}
	newer := &domain.Organism{
		ID:        uuid.New(),
		Code:      "hsa",
		Name:      "Homo sapiens",
		Status:    domain.OrganismStatusError,
		JobError:  "timeout",
		UpdatedAt: time.Now(),
	}

	t.Run("lists with counts, newest update first", func(t *testing.T) {
		f := newProcessServiceFixture(t)
		f.organisms.On("List", mock.Anything, listProcessesLimit, 0).
			Return([]*domain.Organism{older, newer}, nil)
		f.genes.On("CountByOrganism", mock.Anything, older.ID).
			Return(store.GeneCounts{Total: 4600, WithOrthologs: 3400}, nil)
		f.genes.On("CountByOrganism", mock.Anything, newer.ID).
			Return(store.GeneCounts{}, nil)

		summaries, err := f.svc.ListProcesses(ctx, "")
		require.NoError(t, err)
		require.Len(t, summaries, 2)

		assert.Equal(t, "hsa", summaries[0].Code)
		assert.Nil(t, summaries[0].CoveragePercent)

		assert.Equal(t, "eco", summaries[1].Code)
		assert.Equal(t, 4600, summaries[1].TotalGenes)
		require.NotNil(t, summaries[1].CoveragePercent)
		assert.InDelta(t, 73.91, *summaries[1].CoveragePercent, 0.001)
	})

	t.Run("filters by status", func(t *testing.T) {
		f := newProcessServiceFixture(t)
		f.organisms.On("List", mock.Anything, listProcessesLimit, 0).
			Return([]*domain.Organism{older, newer}, nil)
		f.genes.On("CountByOrganism", mock.Anything, newer.ID).
			Return(store.GeneCounts{}, nil)

		summaries, err := f.svc.ListProcesses(ctx, "error")
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		assert.Equal(t, "hsa", summaries[0].Code)
	})
}
