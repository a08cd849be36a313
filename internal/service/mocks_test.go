package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/phrazzld/kegg-explore-api/internal/domain"
	"github.com/phrazzld/kegg-explore-api/internal/store"
	"github.com/phrazzld/kegg-explore-api/internal/task"
)

// MockOrganismStore mocks the store.OrganismStore interface
type MockOrganismStore struct {
	mock.Mock
}

func (m *MockOrganismStore) Create(ctx context.Context, organism *domain.Organism) error {
	args := m.Called(ctx, organism)
	return args.Error(0)
}

func (m *MockOrganismStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organism, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organism), args.Error(1)
}

func (m *MockOrganismStore) GetByCode(ctx context.Context, code string) (*domain.Organism, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organism), args.Error(1)
}

func (m *MockOrganismStore) List(
	ctx context.Context,
	limit, offset int,
) ([]*domain.Organism, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Organism), args.Error(1)
}

func (m *MockOrganismStore) Update(ctx context.Context, organism *domain.Organism) error {
	args := m.Called(ctx, organism)
	return args.Error(0)
}

func (m *MockOrganismStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.OrganismStatus,
	jobID, jobError string,
) error {
	args := m.Called(ctx, id, status, jobID, jobError)
	return args.Error(0)
}

func (m *MockOrganismStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrganismStore) WithTx(tx *sql.Tx) store.OrganismStore {
	return m
}

// MockGeneStore mocks the store.GeneStore interface
type MockGeneStore struct {
	mock.Mock
}

func (m *MockGeneStore) InsertBatch(ctx context.Context, genes []*domain.GeneRecord) error {
	args := m.Called(ctx, genes)
	return args.Error(0)
}

func (m *MockGeneStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GeneRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GeneRecord), args.Error(1)
}

func (m *MockGeneStore) List(
	ctx context.Context,
	filter store.GeneListFilter,
) ([]*domain.GeneRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.GeneRecord), args.Error(1)
}

func (m *MockGeneStore) UpdateOrtholog(ctx context.Context, gene *domain.GeneRecord) error {
	args := m.Called(ctx, gene)
	return args.Error(0)
}

func (m *MockGeneStore) DeleteByOrganism(
	ctx context.Context,
	organismID uuid.UUID,
) (int64, error) {
	args := m.Called(ctx, organismID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGeneStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGeneStore) CountByOrganism(
	ctx context.Context,
	organismID uuid.UUID,
) (store.GeneCounts, error) {
	args := m.Called(ctx, organismID)
	return args.Get(0).(store.GeneCounts), args.Error(1)
}

func (m *MockGeneStore) WithTx(tx *sql.Tx) store.GeneStore {
	return m
}

// MockTaskRunner mocks the TaskRunner interface
type MockTaskRunner struct {
	mock.Mock
}

func (m *MockTaskRunner) Submit(ctx context.Context, t task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

// passthroughTx runs a transactional closure directly with a nil
// transaction. The mock stores return themselves from WithTx, so the
// closure exercises the same code path without a database.
func passthroughTx(ctx context.Context, db *sql.DB, fn store.TxFn) error {
	return fn(ctx, nil)
}
