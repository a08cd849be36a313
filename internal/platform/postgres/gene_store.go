package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/kegg-explore-api/internal/domain"
	"github.com/phrazzld/kegg-explore-api/internal/platform/logger"
	"github.com/phrazzld/kegg-explore-api/internal/store"
)

// insertBatchSize bounds the number of rows per INSERT statement.
// Keeps each statement's parameter count well under the PostgreSQL
// limit while amortizing round trips.
const insertBatchSize = 500

// geneColumns is the column list shared by all SELECTs in this file.
const geneColumns = `id, organism_id, name, description,
	ortholog_name, ortholog_description, ortholog_species,
	ortholog_length, ortholog_sw_score, ortholog_identity,
	created_at, updated_at`

// PostgresGeneStore implements the store.GeneStore interface using a
// PostgreSQL database as the storage backend.
type PostgresGeneStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresGeneStore creates a new PostgreSQL implementation of the
// GeneStore interface. If logger is nil, a default logger is used.
func NewPostgresGeneStore(db store.DBTX, logger *slog.Logger) *PostgresGeneStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresGeneStore{
		db:     db,
		logger: logger.With(slog.String("component", "gene_store")),
	}
}

var _ store.GeneStore = (*PostgresGeneStore)(nil)

// WithTx implements store.GeneStore.WithTx
func (s *PostgresGeneStore) WithTx(tx *sql.Tx) store.GeneStore {
	return &PostgresGeneStore{db: tx, logger: s.logger}
}

// InsertBatch implements store.GeneStore.InsertBatch
// Rows are written in chunks of insertBatchSize via multi-row inserts.
func (s *PostgresGeneStore) InsertBatch(ctx context.Context, genes []*domain.GeneRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, gene := range genes {
		if err := gene.Validate(); err != nil {
			log.Warn("gene validation failed during batch insert",
				slog.String("error", err.Error()),
				slog.String("gene_name", gene.Name))
			return err
		}
	}

	for start := 0; start < len(genes); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(genes) {
			end = len(genes)
		}
		if err := s.insertChunk(ctx, genes[start:end]); err != nil {
			return err
		}
		log.Debug("gene batch stored",
			slog.Int("stored", end),
			slog.Int("total", len(genes)))
	}

	return nil
}

func (s *PostgresGeneStore) insertChunk(ctx context.Context, genes []*domain.GeneRecord) error {
	const columnsPerRow = 12

	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO genes (id, organism_id, name, description,
			ortholog_name, ortholog_description, ortholog_species,
			ortholog_length, ortholog_sw_score, ortholog_identity,
			created_at, updated_at)
		VALUES `)

	args := make([]any, 0, len(genes)*columnsPerRow)
	for i, gene := range genes {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(placeholderRow(i*columnsPerRow, columnsPerRow))
		args = append(args,
			gene.ID,
			gene.OrganismID,
			gene.Name,
			gene.Description,
			gene.OrthologName,
			gene.OrthologDescription,
			gene.OrthologSpecies,
			gene.OrthologLength,
			gene.OrthologSWScore,
			gene.OrthologIdentity,
			gene.CreatedAt,
			gene.UpdatedAt,
		)
	}

	if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to insert gene batch: %w", MapError(err))
	}
	return nil
}

// placeholderRow renders "($1, $2, ...)" starting after offset
// existing placeholders.
func placeholderRow(offset, count int) string {
	parts := make([]string, count)
	for i := 0; i < count; i++ {
		parts[i] = fmt.Sprintf("$%d", offset+i+1)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// GetByID implements store.GeneStore.GetByID
func (s *PostgresGeneStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GeneRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM genes WHERE id = $1`, geneColumns)

	gene, err := scanGeneRow(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrGeneNotFound
		}
		return nil, err
	}
	return gene, nil
}

// List implements store.GeneStore.List
func (s *PostgresGeneStore) List(ctx context.Context, filter store.GeneListFilter) ([]*domain.GeneRecord, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, `SELECT %s FROM genes`, geneColumns)

	var conditions []string
	var args []any

	if filter.OrganismID != nil {
		args = append(args, *filter.OrganismID)
		conditions = append(conditions, fmt.Sprintf("organism_id = $%d", len(args)))
	}
	if filter.HasOrtholog != nil {
		if *filter.HasOrtholog {
			conditions = append(conditions, "ortholog_name IS NOT NULL")
		} else {
			conditions = append(conditions, "ortholog_name IS NULL")
		}
	}
	if len(conditions) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	sb.WriteString(" ORDER BY name ASC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list genes: %w", MapError(err))
	}
	defer func() {
		_ = rows.Close()
	}()

	var genes []*domain.GeneRecord
	for rows.Next() {
		gene, err := scanGeneRow(rows)
		if err != nil {
			return nil, err
		}
		genes = append(genes, gene)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating gene rows: %w", err)
	}

	return genes, nil
}

// UpdateOrtholog implements store.GeneStore.UpdateOrtholog
func (s *PostgresGeneStore) UpdateOrtholog(ctx context.Context, gene *domain.GeneRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE genes
		SET ortholog_name = $1, ortholog_description = $2, ortholog_species = $3,
			ortholog_length = $4, ortholog_sw_score = $5, ortholog_identity = $6,
			updated_at = $7
		WHERE id = $8
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		gene.OrthologName,
		gene.OrthologDescription,
		gene.OrthologSpecies,
		gene.OrthologLength,
		gene.OrthologSWScore,
		gene.OrthologIdentity,
		time.Now().UTC(),
		gene.ID,
	)
	if err != nil {
		log.Error("failed to update gene ortholog fields",
			slog.String("error", err.Error()),
			slog.String("gene_id", gene.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "gene"); err != nil {
		return store.ErrGeneNotFound
	}
	return nil
}

// DeleteByOrganism implements store.GeneStore.DeleteByOrganism
func (s *PostgresGeneStore) DeleteByOrganism(ctx context.Context, organismID uuid.UUID) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM genes WHERE organism_id = $1`, organismID)
	if err != nil {
		log.Error("failed to delete genes for organism",
			slog.String("error", err.Error()),
			slog.String("organism_id", organismID.String()))
		return 0, MapError(err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if deleted > 0 {
		log.Info("deleted existing genes for organism",
			slog.String("organism_id", organismID.String()),
			slog.Int64("deleted", deleted))
	}
	return deleted, nil
}

// Delete implements store.GeneStore.Delete
func (s *PostgresGeneStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM genes WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "gene"); err != nil {
		return store.ErrGeneNotFound
	}
	return nil
}

// CountByOrganism implements store.GeneStore.CountByOrganism
func (s *PostgresGeneStore) CountByOrganism(ctx context.Context, organismID uuid.UUID) (store.GeneCounts, error) {
	query := `
		SELECT COUNT(*), COUNT(ortholog_name)
		FROM genes
		WHERE organism_id = $1
	`
	var counts store.GeneCounts
	err := s.db.QueryRowContext(ctx, query, organismID).Scan(&counts.Total, &counts.WithOrthologs)
	if err != nil {
		return store.GeneCounts{}, fmt.Errorf("failed to count genes: %w", MapError(err))
	}
	return counts, nil
}

func scanGeneRow(row rowScanner) (*domain.GeneRecord, error) {
	var gene domain.GeneRecord
	err := row.Scan(
		&gene.ID,
		&gene.OrganismID,
		&gene.Name,
		&gene.Description,
		&gene.OrthologName,
		&gene.OrthologDescription,
		&gene.OrthologSpecies,
		&gene.OrthologLength,
		&gene.OrthologSWScore,
		&gene.OrthologIdentity,
		&gene.CreatedAt,
		&gene.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &gene, nil
}
