// Package job orchestrates the organism processing pipeline: fetching
// genes from KEGG, storing them, resolving orthologs, and reporting
// progress along the way.
package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/kegg-explore-api/internal/domain"
	"github.com/phrazzld/kegg-explore-api/internal/kegg"
	"github.com/phrazzld/kegg-explore-api/internal/ortholog"
	"github.com/phrazzld/kegg-explore-api/internal/platform/metrics"
	"github.com/phrazzld/kegg-explore-api/internal/progress"
	"github.com/phrazzld/kegg-explore-api/internal/store"
)

// progressUpdateInterval is how many resolved genes accumulate between
// progress writes. Frequent enough for a smooth progress bar without
// hammering the progress store.
const progressUpdateInterval = 100

// resolutionMethod tags stored results with the algorithm that
// produced them.
const resolutionMethod = "KEGG_KO"

// KEGGClient is the slice of the KEGG client the processor needs. Each
// job gets its own instance so the rate limiter is scoped per job.
type KEGGClient interface {
	FetchGeneList(ctx context.Context, organismCode string) ([]kegg.Gene, error)
	ortholog.KOClient
}

// Processor runs the full processing pipeline for one organism.
type Processor struct {
	organismStore      store.OrganismStore
	geneStore          store.GeneStore
	progressStore      progress.KeyValueStore
	newClient          func() KEGGClient
	resolveConcurrency int
	logger             *slog.Logger
}

// NewProcessor creates a Processor. newClient is called once per job
// to build a fresh KEGG client. A nil logger falls back to the
// default.
func NewProcessor(
	organismStore store.OrganismStore,
	geneStore store.GeneStore,
	progressStore progress.KeyValueStore,
	newClient func() KEGGClient,
	resolveConcurrency int,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		organismStore:      organismStore,
		geneStore:          geneStore,
		progressStore:      progressStore,
		newClient:          newClient,
		resolveConcurrency: resolveConcurrency,
		logger:             logger.With(slog.String("component", "job_processor")),
	}
}

// ProcessOrganism runs the pipeline for one organism under the given
// job ID: fetch the gene list, replace stored genes, resolve
// orthologs, and finalize the organism's status. Fatal errors mark the
// organism errored before propagating; per-gene resolution failures do
// not abort the job.
func (p *Processor) ProcessOrganism(ctx context.Context, jobID string, organismID uuid.UUID) (*progress.FinalStats, error) {
	started := time.Now()
	tracker := progress.NewTracker(p.progressStore, jobID, p.logger)
	log := p.logger.With(
		slog.String("job_id", jobID),
		slog.String("organism_id", organismID.String()))

	organism, err := p.organismStore.GetByID(ctx, organismID)
	if err != nil {
		if trackErr := tracker.Error(ctx, err.Error()); trackErr != nil {
			log.Warn("failed to record progress error", slog.String("error", trackErr.Error()))
		}
		metrics.JobsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load organism %s: %w", organismID, err)
	}

	log = log.With(slog.String("organism_code", organism.Code))
	log.InfoContext(ctx, "starting organism processing")

	organism.MarkPending(jobID)
	if err := p.organismStore.UpdateStatus(ctx, organism.ID, domain.OrganismStatusPending, jobID, ""); err != nil {
		return nil, p.fail(ctx, tracker, organism, jobID, fmt.Errorf("failed to mark organism pending: %w", err))
	}

	if err := tracker.Start(ctx, organism.ID, organism.Code, 0); err != nil {
		log.Warn("failed to start progress tracking", slog.String("error", err.Error()))
	}

	client := p.newClient()

	// Stage 1: fetch the gene list (0% to 10%).
	genes, err := client.FetchGeneList(ctx, organism.Code)
	if err != nil {
		return nil, p.fail(ctx, tracker, organism, jobID, fmt.Errorf("failed to fetch gene list: %w", err))
	}

	totalGenes := len(genes)
	log.InfoContext(ctx, "fetched gene list", slog.Int("total_genes", totalGenes))

	if err := tracker.Update(ctx, progress.Update{
		Stage:      progress.StageFetchingGenes,
		Progress:   10,
		TotalGenes: &totalGenes,
	}); err != nil {
		log.Warn("progress update failed", slog.String("error", err.Error()))
	}

	// Stage 2: replace stored genes (10% to 15%). Deleting first keeps
	// reprocessing idempotent.
	records, err := p.storeGenes(ctx, tracker, organism, genes)
	if err != nil {
		return nil, p.fail(ctx, tracker, organism, jobID, err)
	}

	zero := 0
	if err := tracker.Update(ctx, progress.Update{
		Stage:              progress.StageStoringGenes,
		Progress:           15,
		GenesProcessed:     &zero,
		GenesWithOrthologs: &zero,
	}); err != nil {
		log.Warn("progress update failed", slog.String("error", err.Error()))
	}

	// Stage 3: resolve orthologs (15% to 100%).
	stats, err := p.resolveOrthologs(ctx, tracker, organism, client, records, log)
	if err != nil {
		return nil, p.fail(ctx, tracker, organism, jobID, err)
	}

	// Stage 4: finalize.
	organism.MarkComplete()
	if err := p.organismStore.UpdateStatus(ctx, organism.ID, domain.OrganismStatusComplete, jobID, ""); err != nil {
		return nil, p.fail(ctx, tracker, organism, jobID, fmt.Errorf("failed to mark organism complete: %w", err))
	}

	if err := tracker.Complete(ctx, stats); err != nil {
		log.Warn("failed to record completion", slog.String("error", err.Error()))
	}

	metrics.JobsTotal.WithLabelValues("complete").Inc()
	metrics.JobDurationSeconds.Observe(time.Since(started).Seconds())

	log.InfoContext(ctx, "organism processing complete",
		slog.Int("total_genes", stats.TotalGenes),
		slog.Int("genes_with_orthologs", stats.GenesWithOrthologs),
		slog.Float64("coverage_percent", stats.CoveragePercent),
		slog.Duration("elapsed", time.Since(started)))

	return stats, nil
}

// storeGenes deletes any genes from a previous run and inserts the
// freshly fetched list.
func (p *Processor) storeGenes(ctx context.Context, tracker *progress.Tracker, organism *domain.Organism, genes []kegg.Gene) ([]*domain.GeneRecord, error) {
	p.trackStage(ctx, tracker, progress.StageStoringGenes, 10)

	if _, err := p.geneStore.DeleteByOrganism(ctx, organism.ID); err != nil {
		return nil, fmt.Errorf("failed to delete existing genes: %w", err)
	}

	records := make([]*domain.GeneRecord, 0, len(genes))
	for _, gene := range genes {
		record, err := domain.NewGeneRecord(organism.ID, gene.Name, gene.Description)
		if err != nil {
			return nil, fmt.Errorf("invalid gene %q: %w", gene.Name, err)
		}
		records = append(records, record)
	}

	if err := p.geneStore.InsertBatch(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to store genes: %w", err)
	}

	return records, nil
}

// resolveOrthologs runs the resolution engine and writes matched
// orthologs back to the gene rows, flushing progress every
// progressUpdateInterval genes.
func (p *Processor) resolveOrthologs(
	ctx context.Context,
	tracker *progress.Tracker,
	organism *domain.Organism,
	client KEGGClient,
	records []*domain.GeneRecord,
	log *slog.Logger,
) (*progress.FinalStats, error) {
	p.trackStage(ctx, tracker, progress.StageFindingOrthologs, 15)

	resolver := ortholog.NewResolver(client, p.resolveConcurrency, log)

	geneIDs := make([]string, len(records))
	for i, record := range records {
		geneIDs[i] = record.Name
	}

	results, err := resolver.ResolveAll(ctx, organism.Code, geneIDs)
	if err != nil {
		return nil, fmt.Errorf("ortholog resolution failed: %w", err)
	}

	var processed, withOrthologs, failed int
	totalGenes := len(records)

	for i, result := range results {
		record := records[i]

		switch result.Outcome {
		case ortholog.OutcomeMatched:
			record.SetOrtholog(
				result.OrthologID,
				result.OrthologDescription,
				result.OrthologSpecies,
				result.Confidence,
			)
			if err := p.geneStore.UpdateOrtholog(ctx, record); err != nil {
				return nil, fmt.Errorf("failed to store ortholog for %s: %w", record.Name, err)
			}
			withOrthologs++
		case ortholog.OutcomeFailed:
			failed++
			log.WarnContext(ctx, "gene resolution failed",
				slog.String("gene_name", record.Name),
				slog.String("error", result.Err.Error()))
		}
		metrics.GenesProcessedTotal.WithLabelValues(string(result.Outcome)).Inc()

		processed++
		if processed%progressUpdateInterval == 0 {
			pct := progress.CalculateStageProgress(progress.StageFindingOrthologs, processed, totalGenes)
			if err := tracker.Update(ctx, progress.Update{
				Stage:              progress.StageFindingOrthologs,
				Progress:           pct,
				GenesProcessed:     &processed,
				GenesWithOrthologs: &withOrthologs,
				Errors:             &failed,
			}); err != nil {
				log.Warn("progress update failed", slog.String("error", err.Error()))
			}
		}
	}

	coverage := 0.0
	if totalGenes > 0 {
		coverage = float64(withOrthologs) / float64(totalGenes) * 100
	}

	return &progress.FinalStats{
		TotalGenes:         totalGenes,
		GenesWithOrthologs: withOrthologs,
		CoveragePercent:    coverage,
		Method:             resolutionMethod,
	}, nil
}

// trackStage writes a stage boundary progress update. Progress writes
// are best effort and never fail the job.
func (p *Processor) trackStage(ctx context.Context, tracker *progress.Tracker, stage progress.Stage, pct float64) {
	if err := tracker.Update(ctx, progress.Update{Stage: stage, Progress: pct}); err != nil {
		p.logger.Warn("progress update failed", slog.String("error", err.Error()))
	}
}

// fail marks the organism errored with a truncated message, records
// the failure in the progress store, and returns the original error.
func (p *Processor) fail(ctx context.Context, tracker *progress.Tracker, organism *domain.Organism, jobID string, err error) error {
	message := domain.TruncateError(err.Error())

	if updateErr := p.organismStore.UpdateStatus(ctx, organism.ID, domain.OrganismStatusError, jobID, message); updateErr != nil {
		p.logger.Error("failed to mark organism errored",
			slog.String("organism_id", organism.ID.String()),
			slog.String("error", updateErr.Error()))
	}

	if trackErr := tracker.Error(ctx, message); trackErr != nil {
		p.logger.Warn("failed to record progress error",
			slog.String("job_id", jobID),
			slog.String("error", trackErr.Error()))
	}

	metrics.JobsTotal.WithLabelValues("error").Inc()
	return err
}
