package api

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/phrazzld/kegg-explore-api/internal/domain"
	"github.com/phrazzld/kegg-explore-api/internal/service"
	"github.com/phrazzld/kegg-explore-api/internal/store"
)

// MockOrganismService mocks the service.OrganismService interface
type MockOrganismService struct {
	mock.Mock
}

func (m *MockOrganismService) CreateOrganism(
	ctx context.Context,
	code, name string,
) (*domain.Organism, error) {
	args := m.Called(ctx, code, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organism), args.Error(1)
}

func (m *MockOrganismService) GetOrganism(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Organism, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organism), args.Error(1)
}

func (m *MockOrganismService) GetOrganismByCode(
	ctx context.Context,
	code string,
) (*domain.Organism, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organism), args.Error(1)
}

func (m *MockOrganismService) ListOrganisms(
	ctx context.Context,
	limit, offset int,
) ([]*domain.Organism, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Organism), args.Error(1)
}

func (m *MockOrganismService) UpdateOrganism(
	ctx context.Context,
	id uuid.UUID,
	code, name string,
) (*domain.Organism, error) {
	args := m.Called(ctx, id, code, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organism), args.Error(1)
}

func (m *MockOrganismService) DeleteOrganism(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockGeneService mocks the service.GeneService interface
type MockGeneService struct {
	mock.Mock
}

func (m *MockGeneService) GetGene(ctx context.Context, id uuid.UUID) (*domain.GeneRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GeneRecord), args.Error(1)
}

func (m *MockGeneService) ListGenes(
	ctx context.Context,
	filter store.GeneListFilter,
) ([]*domain.GeneRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.GeneRecord), args.Error(1)
}

func (m *MockGeneService) DeleteGene(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProcessService mocks the service.ProcessService interface
type MockProcessService struct {
	mock.Mock
}

func (m *MockProcessService) StartProcessing(
	ctx context.Context,
	organismID uuid.UUID,
) (service.StartResult, error) {
	args := m.Called(ctx, organismID)
	return args.Get(0).(service.StartResult), args.Error(1)
}

func (m *MockProcessService) GetProgress(
	ctx context.Context,
	organismID uuid.UUID,
) (service.ProcessStatus, error) {
	args := m.Called(ctx, organismID)
	return args.Get(0).(service.ProcessStatus), args.Error(1)
}

func (m *MockProcessService) DeleteResults(ctx context.Context, organismID uuid.UUID) error {
	args := m.Called(ctx, organismID)
	return args.Error(0)
}

func (m *MockProcessService) ListProcesses(
	ctx context.Context,
	statusFilter string,
) ([]service.ProcessSummary, error) {
	args := m.Called(ctx, statusFilter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.ProcessSummary), args.Error(1)
}

// stubGeneStore backs the CSV exporter in download tests with a fixed
// gene listing.
type stubGeneStore struct {
	genes []*domain.GeneRecord
	err   error
}

func (s *stubGeneStore) InsertBatch(ctx context.Context, genes []*domain.GeneRecord) error {
	return nil
}

func (s *stubGeneStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GeneRecord, error) {
	return nil, store.ErrGeneNotFound
}

func (s *stubGeneStore) List(
	ctx context.Context,
	filter store.GeneListFilter,
) ([]*domain.GeneRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	if filter.HasOrtholog != nil && *filter.HasOrtholog {
		var matched []*domain.GeneRecord
		for _, gene := range s.genes {
			if gene.HasOrtholog() {
				matched = append(matched, gene)
			}
		}
		return matched, nil
	}
	return s.genes, nil
}

func (s *stubGeneStore) UpdateOrtholog(ctx context.Context, gene *domain.GeneRecord) error {
	return nil
}

func (s *stubGeneStore) DeleteByOrganism(
	ctx context.Context,
	organismID uuid.UUID,
) (int64, error) {
	return 0, nil
}

func (s *stubGeneStore) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (s *stubGeneStore) CountByOrganism(
	ctx context.Context,
	organismID uuid.UUID,
) (store.GeneCounts, error) {
	return store.GeneCounts{}, nil
}

func (s *stubGeneStore) WithTx(tx *sql.Tx) store.GeneStore {
	return s
}
