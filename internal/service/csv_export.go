package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/phrazzld/kegg-explore-api/internal/domain"
	"github.com/phrazzld/kegg-explore-api/internal/store"
)

// csvHeader is the column order of gene exports. Empty ortholog
// columns mean no match was found for that gene.
var csvHeader = []string{
	"gene_name",
	"gene_description",
	"ortholog_name",
	"ortholog_description",
	"ortholog_species",
	"ortholog_length",
	"ortholog_sw_score",
	"ortholog_identity",
}

// CSVFilename builds the download filename for a gene export.
func CSVFilename(organismCode string, includeNoOrthologs bool) string {
	suffix := ""
	if !includeNoOrthologs {
		suffix = "_orthologs_only"
	}
	return fmt.Sprintf("%s_genes%s.csv", organismCode, suffix)
}

// CSVExporter streams gene data as CSV.
type CSVExporter struct {
	geneStore store.GeneStore
	logger    *slog.Logger
}

// NewCSVExporter creates a new CSVExporter.
func NewCSVExporter(geneStore store.GeneStore, logger *slog.Logger) (*CSVExporter, error) {
	if geneStore == nil {
		return nil, &GeneServiceError{
			Operation: "create_exporter",
			Message:   "geneStore cannot be nil",
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVExporter{
		geneStore: geneStore,
		logger:    logger.With("component", "csv_exporter"),
	}, nil
}

// ExportOrganismGenes writes all genes of an organism to w as CSV,
// ordered by gene name. Genes without orthologs are included unless
// includeNoOrthologs is false; their ortholog columns stay empty.
func (e *CSVExporter) ExportOrganismGenes(
	ctx context.Context,
	w io.Writer,
	organismID uuid.UUID,
	includeNoOrthologs bool,
) error {
	filter := store.GeneListFilter{OrganismID: &organismID}
	if !includeNoOrthologs {
		withOrtholog := true
		filter.HasOrtholog = &withOrtholog
	}

	genes, err := e.geneStore.List(ctx, filter)
	if err != nil {
		return &GeneServiceError{
			Operation: "export_csv",
			Message:   "failed to list genes",
			Err:       err,
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, gene := range genes {
		if err := writer.Write(csvRow(gene)); err != nil {
			return fmt.Errorf("failed to write CSV row for gene %s: %w", gene.Name, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}

	e.logger.Debug("exported genes to CSV",
		"organism_id", organismID,
		"genes", len(genes),
		"include_no_orthologs", includeNoOrthologs)

	return nil
}

// csvRow formats a single gene as a CSV record.
func csvRow(gene *domain.GeneRecord) []string {
	return []string{
		gene.Name,
		gene.Description,
		stringOrEmpty(gene.OrthologName),
		stringOrEmpty(gene.OrthologDescription),
		stringOrEmpty(gene.OrthologSpecies),
		intOrEmpty(gene.OrthologLength),
		intOrEmpty(gene.OrthologSWScore),
		floatOrEmpty(gene.OrthologIdentity),
	}
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func intOrEmpty(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatOrEmpty(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
