package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/kegg-explore-api/internal/domain"
	"github.com/phrazzld/kegg-explore-api/internal/platform/logger"
	"github.com/phrazzld/kegg-explore-api/internal/store"
)

// PostgresOrganismStore implements the store.OrganismStore interface
// using a PostgreSQL database as the storage backend.
type PostgresOrganismStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresOrganismStore creates a new PostgreSQL implementation of
// the OrganismStore interface. If logger is nil, a default logger is
// used.
func NewPostgresOrganismStore(db store.DBTX, logger *slog.Logger) *PostgresOrganismStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresOrganismStore{
		db:     db,
		logger: logger.With(slog.String("component", "organism_store")),
	}
}

var _ store.OrganismStore = (*PostgresOrganismStore)(nil)

// WithTx implements store.OrganismStore.WithTx
func (s *PostgresOrganismStore) WithTx(tx *sql.Tx) store.OrganismStore {
	return &PostgresOrganismStore{db: tx, logger: s.logger}
}

// Create implements store.OrganismStore.Create
// Returns store.ErrCodeExists if the KEGG code is already registered.
func (s *PostgresOrganismStore) Create(ctx context.Context, organism *domain.Organism) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := organism.Validate(); err != nil {
		log.Warn("organism validation failed during create",
			slog.String("error", err.Error()),
			slog.String("organism_id", organism.ID.String()))
		return err
	}

	query := `
		INSERT INTO organisms (id, code, name, status, job_id, job_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		organism.ID,
		organism.Code,
		organism.Name,
		organism.Status,
		nullString(organism.JobID),
		nullString(organism.JobError),
		organism.CreatedAt,
		organism.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate organism code during create",
				slog.String("code", organism.Code))
			return fmt.Errorf("%w: %s", store.ErrCodeExists, organism.Code)
		}
		log.Error("failed to create organism",
			slog.String("error", err.Error()),
			slog.String("organism_id", organism.ID.String()))
		return MapError(err)
	}

	return nil
}

// GetByID implements store.OrganismStore.GetByID
func (s *PostgresOrganismStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organism, error) {
	query := `
		SELECT id, code, name, status, job_id, job_error, created_at, updated_at
		FROM organisms
		WHERE id = $1
	`
	return s.scanOrganism(s.db.QueryRowContext(ctx, query, id))
}

// GetByCode implements store.OrganismStore.GetByCode
func (s *PostgresOrganismStore) GetByCode(ctx context.Context, code string) (*domain.Organism, error) {
	query := `
		SELECT id, code, name, status, job_id, job_error, created_at, updated_at
		FROM organisms
		WHERE code = $1
	`
	return s.scanOrganism(s.db.QueryRowContext(ctx, query, code))
}

// List implements store.OrganismStore.List
func (s *PostgresOrganismStore) List(ctx context.Context, limit, offset int) ([]*domain.Organism, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, code, name, status, job_id, job_error, created_at, updated_at
		FROM organisms
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list organisms: %w", MapError(err))
	}
	defer func() {
		_ = rows.Close()
	}()

	var organisms []*domain.Organism
	for rows.Next() {
		organism, err := scanOrganismRow(rows)
		if err != nil {
			return nil, err
		}
		organisms = append(organisms, organism)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organism rows: %w", err)
	}

	return organisms, nil
}

// Update implements store.OrganismStore.Update
func (s *PostgresOrganismStore) Update(ctx context.Context, organism *domain.Organism) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := organism.Validate(); err != nil {
		log.Warn("organism validation failed during update",
			slog.String("error", err.Error()),
			slog.String("organism_id", organism.ID.String()))
		return err
	}

	organism.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE organisms
		SET code = $1, name = $2, status = $3, job_id = $4, job_error = $5, updated_at = $6
		WHERE id = $7
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		organism.Code,
		organism.Name,
		organism.Status,
		nullString(organism.JobID),
		nullString(organism.JobError),
		organism.UpdatedAt,
		organism.ID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", store.ErrCodeExists, organism.Code)
		}
		log.Error("failed to update organism",
			slog.String("error", err.Error()),
			slog.String("organism_id", organism.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "organism"); err != nil {
		return store.ErrOrganismNotFound
	}
	return nil
}

// UpdateStatus implements store.OrganismStore.UpdateStatus
func (s *PostgresOrganismStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.OrganismStatus,
	jobID, jobError string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE organisms
		SET status = $1, job_id = $2, job_error = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		status,
		nullString(jobID),
		nullString(jobError),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		log.Error("failed to update organism status",
			slog.String("error", err.Error()),
			slog.String("organism_id", id.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "organism"); err != nil {
		return store.ErrOrganismNotFound
	}
	return nil
}

// Delete implements store.OrganismStore.Delete
// Genes are removed by the ON DELETE CASCADE on their organism_id.
func (s *PostgresOrganismStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM organisms WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete organism",
			slog.String("error", err.Error()),
			slog.String("organism_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "organism"); err != nil {
		return store.ErrOrganismNotFound
	}

	log.Info("organism deleted", slog.String("organism_id", id.String()))
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresOrganismStore) scanOrganism(row *sql.Row) (*domain.Organism, error) {
	organism, err := scanOrganismRow(row)
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrOrganismNotFound
		}
		return nil, err
	}
	return organism, nil
}

func scanOrganismRow(row rowScanner) (*domain.Organism, error) {
	var organism domain.Organism
	var jobID, jobError sql.NullString

	err := row.Scan(
		&organism.ID,
		&organism.Code,
		&organism.Name,
		&organism.Status,
		&jobID,
		&jobError,
		&organism.CreatedAt,
		&organism.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	organism.JobID = jobID.String
	organism.JobError = jobError.String
	return &organism, nil
}

// nullString maps an empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
