package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/kegg-explore-api/internal/domain"
	"github.com/phrazzld/kegg-explore-api/internal/store"
)

// newTestOrganismService builds a service over the mock store with
// the transaction runner replaced by a passthrough.
func newTestOrganismService(t *testing.T, organisms *MockOrganismStore) OrganismService {
	t.Helper()

	svc, err := NewOrganismService(organisms, &sql.DB{}, slog.Default())
	require.NoError(t, err)

	svc.(*organismServiceImpl).runInTx = passthroughTx
	return svc
}

func TestOrganismService_CreateOrganism(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		organisms := &MockOrganismStore{}
		organisms.On("Create", mock.Anything, mock.MatchedBy(func(o *domain.Organism) bool {
			return o.Code == "eco" && o.Name == "Escherichia coli" &&
				o.Status == domain.OrganismStatusUnset
		})).Return(nil)

		svc := newTestOrganismService(t, organisms)

		organism, err := svc.CreateOrganism(ctx, "eco", "Escherichia coli")
		require.NoError(t, err)
		assert.Equal(t, "eco", organism.Code)
		assert.NotEqual(t, uuid.Nil, organism.ID)
		organisms.AssertExpectations(t)
	})

	t.Run("duplicate code maps to sentinel", func(t *testing.T) {
		organisms := &MockOrganismStore{}
		organisms.On("Create", mock.Anything, mock.Anything).Return(store.ErrCodeExists)

		svc := newTestOrganismService(t, organisms)

		_, err := svc.CreateOrganism(ctx, "eco", "Escherichia coli")
		assert.ErrorIs(t, err, ErrOrganismCodeExists)
	})

	t.Run("empty code rejected before store call", func(t *testing.T) {
		organisms := &MockOrganismStore{}
		svc := newTestOrganismService(t, organisms)

		_, err := svc.CreateOrganism(ctx, "", "Escherichia coli")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEmptyOrganismCode)
		organisms.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestOrganismService_GetOrganism(t *testing.T) {
	ctx := context.Background()
	organismID := uuid.New()

	t.Run("success", func(t *testing.T) {
		want := &domain.Organism{ID: organismID, Code: "hsa", Name: "Homo sapiens"}
		organisms := &MockOrganismStore{}
		organisms.On("GetByID", mock.Anything, organismID).Return(want, nil)

		svc := newTestOrganismService(t, organisms)

		got, err := svc.GetOrganism(ctx, organismID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("not found maps to sentinel", func(t *testing.T) {
		organisms := &MockOrganismStore{}
		organisms.On("GetByID", mock.Anything, organismID).
			Return(nil, store.ErrOrganismNotFound)

		svc := newTestOrganismService(t, organisms)

		_, err := svc.GetOrganism(ctx, organismID)
		assert.ErrorIs(t, err, ErrOrganismNotFound)
	})

	t.Run("unexpected error is wrapped", func(t *testing.T) {
		organisms := &MockOrganismStore{}
		organisms.On("GetByID", mock.Anything, organismID).
			Return(nil, errors.New("connection refused"))

		svc := newTestOrganismService(t, organisms)

		_, err := svc.GetOrganism(ctx, organismID)
		require.Error(t, err)

		var svcErr *OrganismServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "get_organism", svcErr.Operation)
	})
}

func TestOrganismService_UpdateOrganism(t *testing.T) {
	ctx := context.Background()
	organismID := uuid.New()

	t.Run("updates name and keeps code", func(t *testing.T) {
		current := &domain.Organism{ID: organismID, Code: "eco", Name: "old name"}
		organisms := &MockOrganismStore{}
		organisms.On("GetByID", mock.Anything, organismID).Return(current, nil)
		organisms.On("Update", mock.Anything, mock.MatchedBy(func(o *domain.Organism) bool {
			return o.Code == "eco" && o.Name == "Escherichia coli K-12"
		})).Return(nil)

		svc := newTestOrganismService(t, organisms)

		updated, err := svc.UpdateOrganism(ctx, organismID, "", "Escherichia coli K-12")
		require.NoError(t, err)
		assert.Equal(t, "eco", updated.Code)
		assert.Equal(t, "Escherichia coli K-12", updated.Name)
		organisms.AssertExpectations(t)
	})

	t.Run("not found maps to sentinel", func(t *testing.T) {
		organisms := &MockOrganismStore{}
		organisms.On("GetByID", mock.Anything, organismID).
			Return(nil, store.ErrOrganismNotFound)

		svc := newTestOrganismService(t, organisms)

		_, err := svc.UpdateOrganism(ctx, organismID, "eco", "name")
		assert.ErrorIs(t, err, ErrOrganismNotFound)
	})
}

func TestOrganismService_DeleteOrganism(t *testing.T) {
	ctx := context.Background()
	organismID := uuid.New()

	t.Run("success", func(t *testing.T) {
		organisms := &MockOrganismStore{}
		organisms.On("Delete", mock.Anything, organismID).Return(nil)

		svc := newTestOrganismService(t, organisms)

		require.NoError(t, svc.DeleteOrganism(ctx, organismID))
		organisms.AssertExpectations(t)
	})

	t.Run("not found maps to sentinel", func(t *testing.T) {
		organisms := &MockOrganismStore{}
		organisms.On("Delete", mock.Anything, organismID).
			Return(store.ErrOrganismNotFound)

		svc := newTestOrganismService(t, organisms)

		assert.ErrorIs(t, svc.DeleteOrganism(ctx, organismID), ErrOrganismNotFound)
	})
}

func TestOrganismService_ListOrganisms(t *testing.T) {
	ctx := context.Background()

	want := []*domain.Organism{
		{ID: uuid.New(), Code: "eco", Name: "Escherichia coli"},
		{ID: uuid.New(), Code: "hsa", Name: "Homo sapiens"},
	}

	organisms := &MockOrganismStore{}
	organisms.On("List", mock.Anything, 50, 10).Return(want, nil)

	svc := newTestOrganismService(t, organisms)

	got, err := svc.ListOrganisms(ctx, 50, 10)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
