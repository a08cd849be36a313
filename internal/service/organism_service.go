package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/kegg-explore-api/internal/domain"
	"github.com/phrazzld/kegg-explore-api/internal/store"
)

// Common sentinel errors for OrganismService
var (
	// ErrOrganismNotFound indicates that the organism does not exist.
	ErrOrganismNotFound = errors.New("organism not found")

	// ErrOrganismCodeExists indicates that another organism is already
	// registered with the same KEGG code.
	ErrOrganismCodeExists = errors.New("organism code already registered")
)

// OrganismService provides CRUD operations for organisms.
type OrganismService interface {
	// CreateOrganism registers a new organism by KEGG code and display name.
	CreateOrganism(ctx context.Context, code, name string) (*domain.Organism, error)

	// GetOrganism retrieves an organism by its ID.
	GetOrganism(ctx context.Context, id uuid.UUID) (*domain.Organism, error)

	// GetOrganismByCode retrieves an organism by its KEGG code.
	GetOrganismByCode(ctx context.Context, code string) (*domain.Organism, error)

	// ListOrganisms retrieves organisms ordered by creation time, newest first.
	ListOrganisms(ctx context.Context, limit, offset int) ([]*domain.Organism, error)

	// UpdateOrganism changes the code and/or display name of an organism.
	// Empty arguments leave the corresponding field untouched.
	UpdateOrganism(ctx context.Context, id uuid.UUID, code, name string) (*domain.Organism, error)

	// DeleteOrganism removes an organism and all of its genes.
	DeleteOrganism(ctx context.Context, id uuid.UUID) error
}

// OrganismServiceError wraps errors from the organism service with context.
type OrganismServiceError struct {
	// Operation is the operation that failed (e.g., "create_organism")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for OrganismServiceError.
func (e *OrganismServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("organism service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("organism service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *OrganismServiceError) Unwrap() error {
	return e.Err
}

// NewOrganismServiceError creates a new OrganismServiceError.
// It maps known store-level sentinels to service-level ones and
// returns those directly without wrapping.
func NewOrganismServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrOrganismNotFound) || errors.Is(err, ErrOrganismCodeExists) {
		return err
	}
	if errors.Is(err, store.ErrOrganismNotFound) {
		return ErrOrganismNotFound
	}
	if errors.Is(err, store.ErrCodeExists) {
		return ErrOrganismCodeExists
	}

	return &OrganismServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// txRunner abstracts store.RunInTransaction so unit tests can run
// transactional closures without a database.
type txRunner func(ctx context.Context, db *sql.DB, fn store.TxFn) error

// organismServiceImpl implements the OrganismService interface
type organismServiceImpl struct {
	organismStore store.OrganismStore
	db            *sql.DB
	runInTx       txRunner
	logger        *slog.Logger
}

// NewOrganismService creates a new OrganismService.
// It returns an error if any of the required dependencies are nil.
func NewOrganismService(
	organismStore store.OrganismStore,
	db *sql.DB,
	logger *slog.Logger,
) (OrganismService, error) {
	if organismStore == nil {
		return nil, &OrganismServiceError{
			Operation: "create_service",
			Message:   "organismStore cannot be nil",
		}
	}
	if db == nil {
		return nil, &OrganismServiceError{
			Operation: "create_service",
			Message:   "db cannot be nil",
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &organismServiceImpl{
		organismStore: organismStore,
		db:            db,
		runInTx:       store.RunInTransaction,
		logger:        logger.With("component", "organism_service"),
	}, nil
}

// CreateOrganism registers a new organism with the given KEGG code and
// display name.
func (s *organismServiceImpl) CreateOrganism(
	ctx context.Context,
	code, name string,
) (*domain.Organism, error) {
	organism, err := domain.NewOrganism(code, name)
	if err != nil {
		s.logger.Error("failed to create organism object",
			"error", err,
			"code", code)
		return nil, NewOrganismServiceError("create_organism", "invalid organism data", err)
	}

	err = s.runInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.organismStore.WithTx(tx)
		if err := txStore.Create(ctx, organism); err != nil {
			s.logger.Error("failed to create organism",
				"error", err,
				"code", code,
				"organism_id", organism.ID)
			return NewOrganismServiceError("create_organism", "failed to save organism", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("organism created",
		"organism_id", organism.ID,
		"code", organism.Code)

	return organism, nil
}

// GetOrganism retrieves an organism by its ID.
func (s *organismServiceImpl) GetOrganism(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Organism, error) {
	organism, err := s.organismStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrOrganismNotFound) {
			return nil, ErrOrganismNotFound
		}
		s.logger.Error("failed to retrieve organism",
			"error", err,
			"organism_id", id)
		return nil, NewOrganismServiceError("get_organism", "failed to retrieve organism", err)
	}
	return organism, nil
}

// GetOrganismByCode retrieves an organism by its KEGG code.
func (s *organismServiceImpl) GetOrganismByCode(
	ctx context.Context,
	code string,
) (*domain.Organism, error) {
	organism, err := s.organismStore.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrOrganismNotFound) {
			return nil, ErrOrganismNotFound
		}
		s.logger.Error("failed to retrieve organism by code",
			"error", err,
			"code", code)
		return nil, NewOrganismServiceError("get_organism_by_code", "failed to retrieve organism", err)
	}
	return organism, nil
}

// ListOrganisms retrieves organisms ordered by creation time, newest first.
func (s *organismServiceImpl) ListOrganisms(
	ctx context.Context,
	limit, offset int,
) ([]*domain.Organism, error) {
	organisms, err := s.organismStore.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list organisms",
			"error", err,
			"limit", limit,
			"offset", offset)
		return nil, NewOrganismServiceError("list_organisms", "failed to list organisms", err)
	}
	return organisms, nil
}

// UpdateOrganism changes the code and/or display name of an organism.
// The read and write happen in one transaction.
func (s *organismServiceImpl) UpdateOrganism(
	ctx context.Context,
	id uuid.UUID,
	code, name string,
) (*domain.Organism, error) {
	var organism *domain.Organism

	err := s.runInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.organismStore.WithTx(tx)

		current, err := txStore.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrOrganismNotFound) {
				return ErrOrganismNotFound
			}
			return NewOrganismServiceError("update_organism", "failed to retrieve organism", err)
		}

		if code != "" {
			current.Code = code
		}
		if name != "" {
			current.Name = name
		}
		if err := current.Validate(); err != nil {
			return NewOrganismServiceError("update_organism", "invalid organism data", err)
		}

		if err := txStore.Update(ctx, current); err != nil {
			s.logger.Error("failed to update organism",
				"error", err,
				"organism_id", id)
			return NewOrganismServiceError("update_organism", "failed to save organism", err)
		}

		organism = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("organism updated",
		"organism_id", organism.ID,
		"code", organism.Code)

	return organism, nil
}

// DeleteOrganism removes an organism. Genes are removed through the
// foreign key cascade.
func (s *organismServiceImpl) DeleteOrganism(ctx context.Context, id uuid.UUID) error {
	if err := s.organismStore.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrOrganismNotFound) {
			return ErrOrganismNotFound
		}
		s.logger.Error("failed to delete organism",
			"error", err,
			"organism_id", id)
		return NewOrganismServiceError("delete_organism", "failed to delete organism", err)
	}

	s.logger.Info("organism deleted", "organism_id", id)
	return nil
}
