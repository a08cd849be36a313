package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/kegg-explore-api/internal/progress"
)

// recordingProcessor captures the job ID and organism passed to it.
type recordingProcessor struct {
	jobID      string
	organismID uuid.UUID
	stats      *progress.FinalStats
	err        error
}

func (p *recordingProcessor) ProcessOrganism(ctx context.Context, jobID string, organismID uuid.UUID) (*progress.FinalStats, error) {
	p.jobID = jobID
	p.organismID = organismID
	if p.err != nil {
		return nil, p.err
	}
	return p.stats, nil
}

func TestNewOrganismProcessingTask(t *testing.T) {
	organismID := uuid.New()

	t.Run("validates dependencies", func(t *testing.T) {
		_, err := NewOrganismProcessingTask(organismID, nil, time.Minute, testLogger())
		assert.ErrorIs(t, err, ErrNilProcessor)

		_, err = NewOrganismProcessingTask(organismID, &recordingProcessor{}, time.Minute, nil)
		assert.ErrorIs(t, err, ErrNilLogger)

		_, err = NewOrganismProcessingTask(uuid.Nil, &recordingProcessor{}, time.Minute, testLogger())
		assert.ErrorIs(t, err, ErrEmptyOrganismID)
	})

	t.Run("payload round trips through the parser", func(t *testing.T) {
		task, err := NewOrganismProcessingTask(organismID, &recordingProcessor{}, time.Minute, testLogger())
		require.NoError(t, err)

		parsed, err := ParseOrganismProcessingPayload(task.Payload())
		require.NoError(t, err)
		assert.Equal(t, organismID, parsed)
	})
}

func TestOrganismProcessingTaskExecute(t *testing.T) {
	organismID := uuid.New()

	t.Run("passes its own ID as the job ID", func(t *testing.T) {
		proc := &recordingProcessor{
			stats: &progress.FinalStats{TotalGenes: 10, GenesWithOrthologs: 7, CoveragePercent: 70},
		}
		task, err := NewOrganismProcessingTask(organismID, proc, time.Minute, testLogger())
		require.NoError(t, err)

		require.NoError(t, task.Execute(context.Background()))
		assert.Equal(t, task.ID().String(), proc.jobID)
		assert.Equal(t, organismID, proc.organismID)
		assert.Equal(t, TaskStatusCompleted, task.Status())
	})

	t.Run("processor failure marks the task failed", func(t *testing.T) {
		proc := &recordingProcessor{err: errors.New("gene list unavailable")}
		task, err := NewOrganismProcessingTask(organismID, proc, time.Minute, testLogger())
		require.NoError(t, err)

		err = task.Execute(context.Background())
		require.Error(t, err)
		assert.ErrorContains(t, err, "gene list unavailable")
		assert.Equal(t, TaskStatusFailed, task.Status())
	})

	t.Run("cancelled context aborts before processing", func(t *testing.T) {
		proc := &recordingProcessor{}
		task, err := NewOrganismProcessingTask(organismID, proc, time.Minute, testLogger())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err = task.Execute(ctx)
		require.Error(t, err)
		assert.Empty(t, proc.jobID)
		assert.Equal(t, TaskStatusFailed, task.Status())
	})
}

func TestOrganismProcessingTaskFactory(t *testing.T) {
	organismID := uuid.New()
	factory := NewOrganismProcessingTaskFactory(&recordingProcessor{}, time.Minute, testLogger())

	t.Run("creates tasks for the given organism", func(t *testing.T) {
		task, err := factory.CreateTask(organismID)
		require.NoError(t, err)
		assert.Equal(t, organismID, task.OrganismID())
		assert.Equal(t, TaskTypeOrganismProcessing, task.Type())
	})

	t.Run("rehydrates an execute closure from a payload", func(t *testing.T) {
		task, err := factory.CreateTask(organismID)
		require.NoError(t, err)

		execute, err := factory.ExecuteFn(TaskTypeOrganismProcessing, task.ID(), task.Payload())
		require.NoError(t, err)
		require.NoError(t, execute(context.Background()))
	})

	t.Run("rejects unknown task types", func(t *testing.T) {
		_, err := factory.ExecuteFn("unknown", uuid.New(), []byte(`{}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown task type")
	})
}
