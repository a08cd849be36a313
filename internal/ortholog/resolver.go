package ortholog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// DefaultConcurrency bounds how many genes are resolved at once. The
// underlying client serializes requests anyway; this caps how much
// work queues up behind its rate limiter.
const DefaultConcurrency = 5

// KOClient is the slice of the KEGG client the resolver needs.
type KOClient interface {
	FetchKOAssignments(ctx context.Context, organismCode string) (map[string][]string, error)
	FetchGenesInKOGroup(ctx context.Context, koID string) ([]string, error)
}

// Resolver finds the best cross-species ortholog for each gene of an
// organism.
type Resolver struct {
	client      KOClient
	logger      *slog.Logger
	concurrency int
}

// NewResolver creates a Resolver. A non-positive concurrency falls
// back to DefaultConcurrency; a nil logger falls back to the default.
func NewResolver(client KOClient, concurrency int, logger *slog.Logger) *Resolver {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		client:      client,
		logger:      logger.With(slog.String("component", "ortholog_resolver")),
		concurrency: concurrency,
	}
}

// ResolveAll resolves orthologs for every gene of an organism.
//
// It fetches the organism's complete KO assignment table in a single
// call, then resolves genes concurrently under the configured bound.
// A failure resolving one gene yields an OutcomeFailed result for that
// gene and does not affect the others. The returned slice is in input
// order, one Result per gene.
//
// An error is returned only when the KO assignment table itself cannot
// be fetched; no per-gene work happens in that case.
func (r *Resolver) ResolveAll(ctx context.Context, organismCode string, geneIDs []string) ([]Result, error) {
	assignments, err := r.client.FetchKOAssignments(ctx, organismCode)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch KO assignments for %s: %w", organismCode, err)
	}

	r.logger.InfoContext(ctx, "fetched KO assignment table",
		slog.String("organism_code", organismCode),
		slog.Int("genes_with_assignments", len(assignments)),
		slog.Int("total_genes", len(geneIDs)))

	results := make([]Result, len(geneIDs))
	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup

	for i, geneID := range geneIDs {
		wg.Add(1)
		go func(i int, geneID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = r.resolveGene(ctx, geneID, organismCode, assignments[geneID])
		}(i, geneID)
	}
	wg.Wait()

	matched := 0
	for _, res := range results {
		if res.HasOrtholog() {
			matched++
		}
	}
	r.logger.InfoContext(ctx, "ortholog resolution complete",
		slog.String("organism_code", organismCode),
		slog.Int("total_genes", len(geneIDs)),
		slog.Int("genes_with_orthologs", matched))

	return results, nil
}

// resolveGene resolves a single gene given its KO assignments. Each KO
// group is tried in order until one yields an ortholog.
func (r *Resolver) resolveGene(ctx context.Context, geneID, organismCode string, koIDs []string) Result {
	if len(koIDs) == 0 {
		return Result{GeneID: geneID, Outcome: OutcomeNoAssignment}
	}

	var lastErr error
	for _, koID := range koIDs {
		res, err := r.bestInGroup(ctx, geneID, koID, organismCode)
		if err != nil {
			lastErr = err
			r.logger.WarnContext(ctx, "KO group lookup failed",
				slog.String("gene_id", geneID),
				slog.String("ko_id", koID),
				slog.String("error", err.Error()))
			continue
		}
		if res != nil {
			return *res
		}
	}

	if lastErr != nil {
		return Result{
			GeneID:  geneID,
			Outcome: OutcomeFailed,
			KOID:    koIDs[0],
			Err:     lastErr,
		}
	}

	return Result{GeneID: geneID, Outcome: OutcomeNoOrtholog, KOID: koIDs[0]}
}

// bestInGroup selects the highest-scoring ortholog candidate inside
// one KO group, or nil when the group holds no gene from another
// organism. Ties keep the candidate seen first, which makes selection
// deterministic for a given response order.
func (r *Resolver) bestInGroup(ctx context.Context, geneID, koID, organismCode string) (*Result, error) {
	members, err := r.client.FetchGenesInKOGroup(ctx, koID)
	if err != nil {
		return nil, err
	}

	var (
		bestID    string
		bestOrg   string
		bestScore float64
		found     bool
	)

	for _, candidateID := range members {
		org, ok := splitOrganism(candidateID)
		if !ok {
			continue
		}
		// Same-organism members are paralogs, not orthologs.
		if org == organismCode || candidateID == geneID {
			continue
		}

		score := scoreCandidate(organismCode, org)
		if !found || score > bestScore {
			bestID = candidateID
			bestOrg = org
			bestScore = score
			found = true
		}
	}

	if !found {
		return nil, nil
	}

	return &Result{
		GeneID:              geneID,
		Outcome:             OutcomeMatched,
		OrthologID:          bestID,
		OrthologSpecies:     bestOrg,
		OrthologDescription: "Ortholog from " + bestOrg,
		KOID:                koID,
		Confidence:          bestScore,
	}, nil
}

// splitOrganism extracts the organism prefix from a gene identifier of
// the form "org:gene".
func splitOrganism(geneID string) (string, bool) {
	org, _, ok := strings.Cut(geneID, ":")
	if !ok || org == "" {
		return "", false
	}
	return org, true
}
