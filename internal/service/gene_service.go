package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/kegg-explore-api/internal/domain"
	"github.com/phrazzld/kegg-explore-api/internal/store"
)

// ErrGeneNotFound indicates that the gene does not exist.
var ErrGeneNotFound = errors.New("gene not found")

// GeneService provides read and delete operations for genes.
// Genes are created by processing jobs, never through the API.
type GeneService interface {
	// GetGene retrieves a gene by its ID.
	GetGene(ctx context.Context, id uuid.UUID) (*domain.GeneRecord, error)

	// ListGenes retrieves genes matching the filter, ordered by name.
	ListGenes(ctx context.Context, filter store.GeneListFilter) ([]*domain.GeneRecord, error)

	// DeleteGene removes a single gene.
	DeleteGene(ctx context.Context, id uuid.UUID) error
}

// GeneServiceError wraps errors from the gene service with context.
type GeneServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for GeneServiceError.
func (e *GeneServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gene service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("gene service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *GeneServiceError) Unwrap() error {
	return e.Err
}

// geneServiceImpl implements the GeneService interface
type geneServiceImpl struct {
	geneStore store.GeneStore
	logger    *slog.Logger
}

// NewGeneService creates a new GeneService.
func NewGeneService(geneStore store.GeneStore, logger *slog.Logger) (GeneService, error) {
	if geneStore == nil {
		return nil, &GeneServiceError{
			Operation: "create_service",
			Message:   "geneStore cannot be nil",
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &geneServiceImpl{
		geneStore: geneStore,
		logger:    logger.With("component", "gene_service"),
	}, nil
}

// GetGene retrieves a gene by its ID.
func (s *geneServiceImpl) GetGene(ctx context.Context, id uuid.UUID) (*domain.GeneRecord, error) {
	gene, err := s.geneStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrGeneNotFound) {
			return nil, ErrGeneNotFound
		}
		s.logger.Error("failed to retrieve gene",
			"error", err,
			"gene_id", id)
		return nil, &GeneServiceError{
			Operation: "get_gene",
			Message:   "failed to retrieve gene",
			Err:       err,
		}
	}
	return gene, nil
}

// ListGenes retrieves genes matching the filter, ordered by name.
func (s *geneServiceImpl) ListGenes(
	ctx context.Context,
	filter store.GeneListFilter,
) ([]*domain.GeneRecord, error) {
	genes, err := s.geneStore.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list genes", "error", err)
		return nil, &GeneServiceError{
			Operation: "list_genes",
			Message:   "failed to list genes",
			Err:       err,
		}
	}
	return genes, nil
}

// DeleteGene removes a single gene.
func (s *geneServiceImpl) DeleteGene(ctx context.Context, id uuid.UUID) error {
	if err := s.geneStore.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrGeneNotFound) {
			return ErrGeneNotFound
		}
		s.logger.Error("failed to delete gene",
			"error", err,
			"gene_id", id)
		return &GeneServiceError{
			Operation: "delete_gene",
			Message:   "failed to delete gene",
			Err:       err,
		}
	}
	return nil
}
