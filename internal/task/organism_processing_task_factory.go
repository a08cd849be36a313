package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// OrganismProcessingTaskFactory creates OrganismProcessingTask
// instances and rebuilds execution closures for tasks recovered from
// the database.
type OrganismProcessingTaskFactory struct {
	processor OrganismProcessor
	timeout   time.Duration
	logger    *slog.Logger
}

// NewOrganismProcessingTaskFactory creates a new factory.
func NewOrganismProcessingTaskFactory(
	processor OrganismProcessor,
	timeout time.Duration,
	logger *slog.Logger,
) *OrganismProcessingTaskFactory {
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	return &OrganismProcessingTaskFactory{
		processor: processor,
		timeout:   timeout,
		logger:    logger.With("component", "organism_processing_task_factory"),
	}
}

// CreateTask creates a new OrganismProcessingTask for the specified
// organism.
func (f *OrganismProcessingTaskFactory) CreateTask(organismID uuid.UUID) (*OrganismProcessingTask, error) {
	return NewOrganismProcessingTask(organismID, f.processor, f.timeout, f.logger)
}

// ExecuteFn rebuilds the execution closure for a persisted task from
// its type and payload. The recovered task keeps its original ID, so
// progress tracking resumes under the same job ID.
func (f *OrganismProcessingTaskFactory) ExecuteFn(
	taskType string,
	taskID uuid.UUID,
	payload []byte,
) (func(ctx context.Context) error, error) {
	if taskType != TaskTypeOrganismProcessing {
		return nil, fmt.Errorf("unknown task type %q", taskType)
	}

	organismID, err := ParseOrganismProcessingPayload(payload)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()

		_, err := f.processor.ProcessOrganism(ctx, taskID.String(), organismID)
		return err
	}, nil
}
