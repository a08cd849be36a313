package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/phrazzld/kegg-explore-api/internal/domain"
)

// GeneListFilter narrows a gene listing. Nil fields are ignored.
type GeneListFilter struct {
	// OrganismID restricts results to one organism.
	OrganismID *uuid.UUID

	// HasOrtholog keeps only genes with (true) or without (false) a
	// resolved ortholog.
	HasOrtholog *bool

	// Limit and Offset paginate results. A zero limit means no limit.
	Limit  int
	Offset int
}

// GeneCounts aggregates per-organism gene totals.
type GeneCounts struct {
	Total         int
	WithOrthologs int
}

// GeneStore defines the interface for gene data persistence.
type GeneStore interface {
	// InsertBatch saves a batch of genes in chunked multi-row inserts.
	// All genes are validated before any row is written.
	InsertBatch(ctx context.Context, genes []*domain.GeneRecord) error

	// GetByID retrieves a gene by its unique ID.
	// Returns ErrGeneNotFound if the gene does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GeneRecord, error)

	// List retrieves genes matching the filter, ordered by name.
	List(ctx context.Context, filter GeneListFilter) ([]*domain.GeneRecord, error)

	// UpdateOrtholog writes the ortholog fields of an existing gene.
	// Returns ErrGeneNotFound if the gene does not exist.
	UpdateOrtholog(ctx context.Context, gene *domain.GeneRecord) error

	// DeleteByOrganism removes all genes of an organism and reports how
	// many rows were deleted. Deleting for an organism with no genes is
	// not an error.
	DeleteByOrganism(ctx context.Context, organismID uuid.UUID) (int64, error)

	// Delete removes a single gene.
	// Returns ErrGeneNotFound if the gene does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByOrganism reports how many genes an organism has and how
	// many of those carry a resolved ortholog.
	CountByOrganism(ctx context.Context, organismID uuid.UUID) (GeneCounts, error)

	// WithTx returns a new GeneStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) GeneStore
}
