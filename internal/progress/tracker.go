package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
)

// Stage identifies a phase of organism processing.
type Stage string

const (
	StageFetchingGenes    Stage = "fetching_genes"
	StageStoringGenes     Stage = "storing_genes"
	StageFindingOrthologs Stage = "finding_orthologs"
	StageComplete         Stage = "complete"
	StageError            Stage = "error"
)

// TTL is how long a progress entry survives after its last write.
// Every write refreshes it, so the clock only runs down once a job
// stops updating.
const TTL = 24 * time.Hour

// MaxErrorMessageLength caps stored error messages.
const MaxErrorMessageLength = 1000

// stageRange maps each working stage to its slice of the overall
// progress bar. Ortholog finding dominates because it is where nearly
// all of the wall time goes.
var stageRanges = map[Stage][2]float64{
	StageFetchingGenes:    {0, 10},
	StageStoringGenes:     {10, 15},
	StageFindingOrthologs: {15, 100},
}

// FinalStats summarizes a completed job.
type FinalStats struct {
	TotalGenes         int     `json:"total_genes"`
	GenesWithOrthologs int     `json:"genes_with_orthologs"`
	CoveragePercent    float64 `json:"coverage_percent"`
	Method             string  `json:"method"`
}

// Snapshot is the stored progress state of one job.
type Snapshot struct {
	OrganismID         uuid.UUID   `json:"organism_id"`
	OrganismCode       string      `json:"organism_code"`
	Stage              Stage       `json:"stage"`
	Progress           float64     `json:"progress"`
	TotalGenes         int         `json:"total_genes"`
	GenesProcessed     int         `json:"genes_processed"`
	GenesWithOrthologs int         `json:"genes_with_orthologs"`
	Errors             int         `json:"errors"`
	StartedAt          time.Time   `json:"started_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
	ErrorMessage       string      `json:"error_message,omitempty"`
	FinalStats         *FinalStats `json:"final_stats,omitempty"`
}

// Update carries the fields of one progress write. Nil counter fields
// leave the stored values untouched.
type Update struct {
	Stage              Stage
	Progress           float64
	GenesProcessed     *int
	GenesWithOrthologs *int
	Errors             *int
	TotalGenes         *int
}

// Tracker reads and writes the progress entry of a single job.
type Tracker struct {
	store  KeyValueStore
	jobID  string
	key    string
	logger *slog.Logger
	now    func() time.Time
}

// NewTracker creates a tracker for jobID. A nil logger falls back to
// the default.
func NewTracker(store KeyValueStore, jobID string, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:  store,
		jobID:  jobID,
		key:    Key(jobID),
		logger: logger.With(slog.String("component", "progress_tracker"), slog.String("job_id", jobID)),
		now:    time.Now,
	}
}

// Key returns the storage key for a job's progress entry.
func Key(jobID string) string {
	return "progress:" + jobID
}

// Start initializes the progress entry at the beginning of a job.
// A totalGenes of zero means the gene count is not yet known.
func (t *Tracker) Start(ctx context.Context, organismID uuid.UUID, organismCode string, totalGenes int) error {
	now := t.now().UTC()
	snap := Snapshot{
		OrganismID:   organismID,
		OrganismCode: organismCode,
		Stage:        StageFetchingGenes,
		Progress:     0,
		TotalGenes:   totalGenes,
		StartedAt:    now,
		UpdatedAt:    now,
	}

	if err := t.write(ctx, snap); err != nil {
		return err
	}

	t.logger.InfoContext(ctx, "progress tracking started",
		slog.String("organism_code", organismCode))
	return nil
}

// Update applies one progress write, refreshing the TTL. If the entry
// has expired or was never created, a fresh one is written so progress
// reporting survives store evictions.
func (t *Tracker) Update(ctx context.Context, u Update) error {
	snap, found, err := t.Get(ctx)
	if err != nil {
		return err
	}

	now := t.now().UTC()
	if !found {
		t.logger.WarnContext(ctx, "progress entry missing, recreating")
		snap = Snapshot{
			OrganismCode: "unknown",
			StartedAt:    now,
		}
	}

	snap.Stage = u.Stage
	snap.Progress = clampProgress(u.Progress)
	snap.UpdatedAt = now
	if u.GenesProcessed != nil {
		snap.GenesProcessed = *u.GenesProcessed
	}
	if u.GenesWithOrthologs != nil {
		snap.GenesWithOrthologs = *u.GenesWithOrthologs
	}
	if u.Errors != nil {
		snap.Errors = *u.Errors
	}
	if u.TotalGenes != nil {
		snap.TotalGenes = *u.TotalGenes
	}

	return t.write(ctx, snap)
}

// Complete marks the job finished at 100% and attaches final
// statistics. The entry stays readable until its TTL lapses.
func (t *Tracker) Complete(ctx context.Context, stats *FinalStats) error {
	snap, found, err := t.Get(ctx)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	snap.Stage = StageComplete
	snap.Progress = 100
	snap.UpdatedAt = t.now().UTC()
	snap.FinalStats = stats

	if err := t.write(ctx, snap); err != nil {
		return err
	}

	t.logger.InfoContext(ctx, "job marked complete")
	return nil
}

// Error marks the job failed, storing a truncated error message.
func (t *Tracker) Error(ctx context.Context, message string) error {
	snap, found, err := t.Get(ctx)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	if len(message) > MaxErrorMessageLength {
		message = message[:MaxErrorMessageLength]
	}

	snap.Stage = StageError
	snap.ErrorMessage = message
	snap.UpdatedAt = t.now().UTC()

	if err := t.write(ctx, snap); err != nil {
		return err
	}

	t.logger.ErrorContext(ctx, "job marked errored", slog.String("error", message))
	return nil
}

// Get returns the current snapshot and whether one exists. Absence is
// not an error; callers fall back to the organism's durable status.
func (t *Tracker) Get(ctx context.Context) (Snapshot, bool, error) {
	raw, found, err := t.store.Get(ctx, t.key)
	if err != nil {
		return Snapshot{}, false, err
	}
	if !found {
		return Snapshot{}, false, nil
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("corrupt progress entry for job %s: %w", t.jobID, err)
	}
	return snap, true, nil
}

// Delete removes the progress entry immediately rather than waiting
// for TTL expiry.
func (t *Tracker) Delete(ctx context.Context) error {
	return t.store.Delete(ctx, t.key)
}

func (t *Tracker) write(ctx context.Context, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode progress entry: %w", err)
	}
	return t.store.Set(ctx, t.key, string(raw), TTL)
}

// CalculateStageProgress maps completion within one stage onto the
// overall 0 to 100 scale. A zero total reports the start of the
// stage's range. Results are clamped to [0, 100].
func CalculateStageProgress(stage Stage, itemsProcessed, totalItems int) float64 {
	bounds, ok := stageRanges[stage]
	if !ok {
		bounds = [2]float64{0, 100}
	}

	if totalItems == 0 {
		return bounds[0]
	}

	fraction := float64(itemsProcessed) / float64(totalItems)
	return clampProgress(bounds[0] + (bounds[1]-bounds[0])*fraction)
}

func clampProgress(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}
