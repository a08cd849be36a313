package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/phrazzld/kegg-explore-api/internal/domain"
)

// OrganismStore defines the interface for organism data persistence.
type OrganismStore interface {
	// Create saves a new organism to the store.
	// It handles domain validation internally.
	// Returns ErrCodeExists if the KEGG code is already registered.
	Create(ctx context.Context, organism *domain.Organism) error

	// GetByID retrieves an organism by its unique ID.
	// Returns ErrOrganismNotFound if the organism does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Organism, error)

	// GetByCode retrieves an organism by its KEGG code.
	// Returns ErrOrganismNotFound if the organism does not exist.
	GetByCode(ctx context.Context, code string) (*domain.Organism, error)

	// List retrieves organisms ordered by creation time, newest first.
	List(ctx context.Context, limit, offset int) ([]*domain.Organism, error)

	// Update saves changes to an existing organism.
	// Returns ErrOrganismNotFound if the organism does not exist.
	Update(ctx context.Context, organism *domain.Organism) error

	// UpdateStatus updates only the processing state of an organism:
	// status, job ID and job error.
	// Returns ErrOrganismNotFound if the organism does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrganismStatus, jobID, jobError string) error

	// Delete removes an organism and, through cascade, all its genes.
	// Returns ErrOrganismNotFound if the organism does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new OrganismStore instance that uses the
	// provided transaction. The transaction is created and managed by
	// the caller.
	WithTx(tx *sql.Tx) OrganismStore
}
