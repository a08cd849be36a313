package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/kegg-explore-api/internal/progress"
)

// DefaultJobTimeout caps how long one organism may process. Large
// genomes take tens of minutes; anything past this is assumed hung.
const DefaultJobTimeout = time.Hour

// Common errors
var (
	ErrNilProcessor    = errors.New("processor cannot be nil")
	ErrNilLogger       = errors.New("logger cannot be nil")
	ErrEmptyOrganismID = errors.New("organism ID cannot be empty")
)

// OrganismProcessor runs the full processing pipeline for one
// organism: fetch genes, store them, resolve orthologs, finalize.
type OrganismProcessor interface {
	ProcessOrganism(ctx context.Context, jobID string, organismID uuid.UUID) (*progress.FinalStats, error)
}

// organismProcessingPayload represents the serialized data stored in
// the task
type organismProcessingPayload struct {
	OrganismID uuid.UUID `json:"organism_id"`
}

// OrganismProcessingTask implements the Task interface for processing
// one organism end to end. The task's own ID doubles as the job ID
// used for progress tracking.
type OrganismProcessingTask struct {
	id         uuid.UUID
	organismID uuid.UUID
	processor  OrganismProcessor
	timeout    time.Duration
	logger     *slog.Logger
	status     TaskStatus
}

// NewOrganismProcessingTask creates a new organism processing task.
// A non-positive timeout falls back to DefaultJobTimeout.
func NewOrganismProcessingTask(
	organismID uuid.UUID,
	processor OrganismProcessor,
	timeout time.Duration,
	logger *slog.Logger,
) (*OrganismProcessingTask, error) {
	if processor == nil {
		return nil, ErrNilProcessor
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if organismID == uuid.Nil {
		return nil, ErrEmptyOrganismID
	}
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}

	id := uuid.New()
	return &OrganismProcessingTask{
		id:         id,
		organismID: organismID,
		processor:  processor,
		timeout:    timeout,
		logger: logger.With(
			"task_type", TaskTypeOrganismProcessing,
			"organism_id", organismID,
			"job_id", id.String()),
		status: TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *OrganismProcessingTask) ID() uuid.UUID {
	return t.id
}

// OrganismID returns the organism this task processes
func (t *OrganismProcessingTask) OrganismID() uuid.UUID {
	return t.organismID
}

// Type returns the task type identifier
func (t *OrganismProcessingTask) Type() string {
	return TaskTypeOrganismProcessing
}

// Payload returns the task data as a byte slice
func (t *OrganismProcessingTask) Payload() []byte {
	payload := organismProcessingPayload{
		OrganismID: t.organismID,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}

	return data
}

// Status returns the current task status
func (t *OrganismProcessingTask) Status() TaskStatus {
	return t.status
}

// Execute runs the processing pipeline under the task's timeout. The
// processor owns all status and progress bookkeeping; this wrapper
// only translates its result into the task lifecycle.
func (t *OrganismProcessingTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	t.logger.Info("starting organism processing task")

	if err := ctx.Err(); err != nil {
		t.status = TaskStatusFailed
		t.logger.Error("task cancelled by context", "error", err)
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	stats, err := t.processor.ProcessOrganism(ctx, t.id.String(), t.organismID)
	if err != nil {
		t.status = TaskStatusFailed
		t.logger.Error("organism processing failed", "error", err)
		return fmt.Errorf("organism processing failed: %w", err)
	}

	t.status = TaskStatusCompleted
	t.logger.Info("organism processing task completed",
		"total_genes", stats.TotalGenes,
		"genes_with_orthologs", stats.GenesWithOrthologs,
		"coverage_percent", stats.CoveragePercent)
	return nil
}

// ParseOrganismProcessingPayload decodes a stored task payload back
// into the organism ID, used when recovering persisted tasks.
func ParseOrganismProcessingPayload(payload []byte) (uuid.UUID, error) {
	var p organismProcessingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return uuid.Nil, fmt.Errorf("failed to decode organism processing payload: %w", err)
	}
	if p.OrganismID == uuid.Nil {
		return uuid.Nil, ErrEmptyOrganismID
	}
	return p.OrganismID, nil
}
