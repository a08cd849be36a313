package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/phrazzld/kegg-explore-api/internal/domain"
	"github.com/phrazzld/kegg-explore-api/internal/progress"
	"github.com/phrazzld/kegg-explore-api/internal/store"
	"github.com/phrazzld/kegg-explore-api/internal/task"
)

// Processing status values reported by GetProgress. While a job is
// live the status comes from the progress tracker; afterwards it
// falls back to the durable organism status.
const (
	ProcessStatusNotStarted = "not_started"
	ProcessStatusPending    = "pending"
	ProcessStatusInProgress = "in_progress"
	ProcessStatusComplete   = "complete"
	ProcessStatusError      = "error"
)

// listProcessesLimit caps how many organisms ListProcesses considers.
const listProcessesLimit = 1000

// TaskRunner defines the interface for submitting background tasks.
type TaskRunner interface {
	// Submit persists a task and adds it to the processing queue.
	Submit(ctx context.Context, t task.Task) error
}

// ProcessingTaskFactory creates processing tasks for organisms.
type ProcessingTaskFactory interface {
	// CreateTask creates a new processing task for the specified organism.
	CreateTask(organismID uuid.UUID) (*task.OrganismProcessingTask, error)
}

// StartResult describes the outcome of a StartProcessing call.
type StartResult struct {
	JobID          string `json:"job_id"`
	Message        string `json:"message"`
	AlreadyRunning bool   `json:"already_running"`
}

// ProcessStatus is the progress report for one organism.
type ProcessStatus struct {
	OrganismID   uuid.UUID `json:"organism_id"`
	OrganismCode string    `json:"organism_code"`
	Status       string    `json:"status"`
	JobID        string    `json:"job_id,omitempty"`
	Message      string    `json:"message,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`

	// Snapshot carries live tracker state while a job is running.
	Snapshot *progress.Snapshot `json:"snapshot,omitempty"`

	// Gene counts, filled from the database once a job has completed.
	TotalGenes         int      `json:"total_genes"`
	GenesWithOrthologs int      `json:"genes_with_orthologs"`
	CoveragePercent    *float64 `json:"coverage_percent,omitempty"`
}

// ProcessSummary is one row of the process overview listing.
type ProcessSummary struct {
	ID                 uuid.UUID             `json:"id"`
	Code               string                `json:"code"`
	Name               string                `json:"name"`
	Status             domain.OrganismStatus `json:"status"`
	JobID              string                `json:"job_id,omitempty"`
	JobError           string                `json:"job_error,omitempty"`
	TotalGenes         int                   `json:"total_genes"`
	GenesWithOrthologs int                   `json:"genes_with_orthologs"`
	CoveragePercent    *float64              `json:"coverage_percent,omitempty"`
}

// ProcessService manages processing jobs and their results.
type ProcessService interface {
	// StartProcessing enqueues a processing job for the organism. When
	// the organism already has a pending job the existing job ID is
	// returned instead of enqueueing a duplicate.
	StartProcessing(ctx context.Context, organismID uuid.UUID) (StartResult, error)

	// GetProgress reports the processing state of an organism. Live
	// jobs are read from the progress tracker; finished or absent jobs
	// fall back to the durable organism status and gene counts.
	GetProgress(ctx context.Context, organismID uuid.UUID) (ProcessStatus, error)

	// DeleteResults removes all genes of an organism and resets its
	// processing state, so it can be processed again from scratch.
	DeleteResults(ctx context.Context, organismID uuid.UUID) error

	// ListProcesses lists organisms with their processing status and
	// gene counts, most recently updated first. A non-empty
	// statusFilter keeps only organisms in that status.
	ListProcesses(ctx context.Context, statusFilter string) ([]ProcessSummary, error)
}

// ProcessServiceError wraps errors from the process service with context.
type ProcessServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ProcessServiceError.
func (e *ProcessServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("process service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("process service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ProcessServiceError) Unwrap() error {
	return e.Err
}

// NewProcessServiceError creates a new ProcessServiceError.
// It maps known store-level sentinels to service-level ones and
// returns those directly without wrapping.
func NewProcessServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrOrganismNotFound) {
		return ErrOrganismNotFound
	}
	if errors.Is(err, store.ErrOrganismNotFound) {
		return ErrOrganismNotFound
	}
	return &ProcessServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// processServiceImpl implements the ProcessService interface
type processServiceImpl struct {
	organismStore store.OrganismStore
	geneStore     store.GeneStore
	progressStore progress.KeyValueStore
	taskFactory   ProcessingTaskFactory
	taskRunner    TaskRunner
	db            *sql.DB
	runInTx       txRunner
	logger        *slog.Logger
}

// NewProcessService creates a new ProcessService.
// It returns an error if any of the required dependencies are nil.
func NewProcessService(
	organismStore store.OrganismStore,
	geneStore store.GeneStore,
	progressStore progress.KeyValueStore,
	taskFactory ProcessingTaskFactory,
	taskRunner TaskRunner,
	db *sql.DB,
	logger *slog.Logger,
) (ProcessService, error) {
	switch {
	case organismStore == nil:
		return nil, &ProcessServiceError{Operation: "create_service", Message: "organismStore cannot be nil"}
	case geneStore == nil:
		return nil, &ProcessServiceError{Operation: "create_service", Message: "geneStore cannot be nil"}
	case progressStore == nil:
		return nil, &ProcessServiceError{Operation: "create_service", Message: "progressStore cannot be nil"}
	case taskFactory == nil:
		return nil, &ProcessServiceError{Operation: "create_service", Message: "taskFactory cannot be nil"}
	case taskRunner == nil:
		return nil, &ProcessServiceError{Operation: "create_service", Message: "taskRunner cannot be nil"}
	case db == nil:
		return nil, &ProcessServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &processServiceImpl{
		organismStore: organismStore,
		geneStore:     geneStore,
		progressStore: progressStore,
		taskFactory:   taskFactory,
		taskRunner:    taskRunner,
		db:            db,
		runInTx:       store.RunInTransaction,
		logger:        logger.With("component", "process_service"),
	}, nil
}

// StartProcessing enqueues a processing job for the organism.
// The pending check makes repeated start calls idempotent: as long as
// a job is pending or running, callers get the same job ID back.
func (s *processServiceImpl) StartProcessing(
	ctx context.Context,
	organismID uuid.UUID,
) (StartResult, error) {
	organism, err := s.organismStore.GetByID(ctx, organismID)
	if err != nil {
		if errors.Is(err, store.ErrOrganismNotFound) {
			return StartResult{}, ErrOrganismNotFound
		}
		return StartResult{}, NewProcessServiceError("start_processing", "failed to retrieve organism", err)
	}

	if organism.Status == domain.OrganismStatusPending && organism.JobID != "" {
		s.logger.Info("organism already has a pending job",
			"organism_id", organismID,
			"job_id", organism.JobID)
		return StartResult{
			JobID:          organism.JobID,
			Message:        fmt.Sprintf("organism %s is already being processed", organism.Code),
			AlreadyRunning: true,
		}, nil
	}

	t, err := s.taskFactory.CreateTask(organismID)
	if err != nil {
		return StartResult{}, NewProcessServiceError("start_processing", "failed to create task", err)
	}

	if err := s.taskRunner.Submit(ctx, t); err != nil {
		return StartResult{}, NewProcessServiceError("start_processing", "failed to submit task", err)
	}

	jobID := t.ID().String()

	// The processor sets the same state when it picks the task up;
	// writing it here makes the pending check reliable immediately.
	err = s.organismStore.UpdateStatus(ctx, organismID, domain.OrganismStatusPending, jobID, "")
	if err != nil {
		s.logger.Warn("failed to mark organism pending after submit",
			"error", err,
			"organism_id", organismID,
			"job_id", jobID)
	}

	s.logger.Info("processing job enqueued",
		"organism_id", organismID,
		"organism_code", organism.Code,
		"job_id", jobID)

	return StartResult{
		JobID:   jobID,
		Message: fmt.Sprintf("processing started for organism %s", organism.Code),
	}, nil
}

// GetProgress reports the processing state of an organism.
func (s *processServiceImpl) GetProgress(
	ctx context.Context,
	organismID uuid.UUID,
) (ProcessStatus, error) {
	organism, err := s.organismStore.GetByID(ctx, organismID)
	if err != nil {
		if errors.Is(err, store.ErrOrganismNotFound) {
			return ProcessStatus{}, ErrOrganismNotFound
		}
		return ProcessStatus{}, NewProcessServiceError("get_progress", "failed to retrieve organism", err)
	}

	status := ProcessStatus{
		OrganismID:   organism.ID,
		OrganismCode: organism.Code,
		JobID:        organism.JobID,
	}

	// Live tracker state wins over the durable status. The tracker
	// entry expires after its TTL, after which the database fallback
	// below takes over.
	if organism.JobID != "" {
		tracker := progress.NewTracker(s.progressStore, organism.JobID, s.logger)
		snap, found, err := tracker.Get(ctx)
		if err != nil {
			s.logger.Warn("failed to read progress tracker",
				"error", err,
				"job_id", organism.JobID)
		} else if found {
			status.Snapshot = &snap
			status.TotalGenes = snap.TotalGenes
			status.GenesWithOrthologs = snap.GenesWithOrthologs
			switch snap.Stage {
			case progress.StageError:
				status.Status = ProcessStatusError
				status.ErrorMessage = snap.ErrorMessage
			case progress.StageComplete:
				status.Status = ProcessStatusComplete
				if snap.FinalStats != nil {
					coverage := snap.FinalStats.CoveragePercent
					status.CoveragePercent = &coverage
				}
			default:
				status.Status = ProcessStatusInProgress
			}
			return status, nil
		}
	}

	switch organism.Status {
	case domain.OrganismStatusComplete:
		counts, err := s.geneStore.CountByOrganism(ctx, organismID)
		if err != nil {
			return ProcessStatus{}, NewProcessServiceError("get_progress", "failed to count genes", err)
		}
		status.Status = ProcessStatusComplete
		status.TotalGenes = counts.Total
		status.GenesWithOrthologs = counts.WithOrthologs
		if counts.Total > 0 {
			coverage := roundCoverage(float64(counts.WithOrthologs) / float64(counts.Total) * 100)
			status.CoveragePercent = &coverage
		}
	case domain.OrganismStatusError:
		status.Status = ProcessStatusError
		status.ErrorMessage = organism.JobError
	case domain.OrganismStatusPending:
		status.Status = ProcessStatusPending
		status.Message = "job is queued and waiting for a worker"
	default:
		status.Status = ProcessStatusNotStarted
	}

	return status, nil
}

// DeleteResults removes all genes of an organism and resets its
// processing state. Both writes happen in one transaction.
func (s *processServiceImpl) DeleteResults(ctx context.Context, organismID uuid.UUID) error {
	err := s.runInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txOrganisms := s.organismStore.WithTx(tx)

		if _, err := txOrganisms.GetByID(ctx, organismID); err != nil {
			if errors.Is(err, store.ErrOrganismNotFound) {
				return ErrOrganismNotFound
			}
			return NewProcessServiceError("delete_results", "failed to retrieve organism", err)
		}

		deleted, err := s.geneStore.WithTx(tx).DeleteByOrganism(ctx, organismID)
		if err != nil {
			return NewProcessServiceError("delete_results", "failed to delete genes", err)
		}

		err = txOrganisms.UpdateStatus(ctx, organismID, domain.OrganismStatusUnset, "", "")
		if err != nil {
			return NewProcessServiceError("delete_results", "failed to reset organism status", err)
		}

		s.logger.Info("processing results deleted",
			"organism_id", organismID,
			"genes_deleted", deleted)
		return nil
	})
	if err != nil {
		return err
	}
	return nil
}

// ListProcesses lists organisms with their processing status and gene
// counts, most recently updated first.
func (s *processServiceImpl) ListProcesses(
	ctx context.Context,
	statusFilter string,
) ([]ProcessSummary, error) {
	organisms, err := s.organismStore.List(ctx, listProcessesLimit, 0)
	if err != nil {
		return nil, NewProcessServiceError("list_processes", "failed to list organisms", err)
	}

	sorted := make([]*domain.Organism, len(organisms))
	copy(sorted, organisms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
	})

	summaries := make([]ProcessSummary, 0, len(sorted))
	for _, organism := range sorted {
		if statusFilter != "" && string(organism.Status) != statusFilter {
			continue
		}

		counts, err := s.geneStore.CountByOrganism(ctx, organism.ID)
		if err != nil {
			return nil, NewProcessServiceError("list_processes", "failed to count genes", err)
		}

		summary := ProcessSummary{
			ID:                 organism.ID,
			Code:               organism.Code,
			Name:               organism.Name,
			Status:             organism.Status,
			JobID:              organism.JobID,
			JobError:           organism.JobError,
			TotalGenes:         counts.Total,
			GenesWithOrthologs: counts.WithOrthologs,
		}
		if counts.Total > 0 {
			coverage := roundCoverage(float64(counts.WithOrthologs) / float64(counts.Total) * 100)
			summary.CoveragePercent = &coverage
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// roundCoverage rounds a coverage percentage to two decimal places.
func roundCoverage(v float64) float64 {
	return math.Round(v*100) / 100
}
