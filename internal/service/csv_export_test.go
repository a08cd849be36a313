package service

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/kegg-explore-api/internal/domain"
	"github.com/phrazzld/kegg-explore-api/internal/store"
)

func strPtr(s string) *string    { return &s }
func intPtr(v int) *int          { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestCSVFilename(t *testing.T) {
	assert.Equal(t, "eco_genes.csv", CSVFilename("eco", true))
	assert.Equal(t, "eco_genes_orthologs_only.csv", CSVFilename("eco", false))
}

func TestCSVExporter_ExportOrganismGenes(t *testing.T) {
	ctx := context.Background()
	organismID := uuid.New()

	matched := &domain.GeneRecord{
		OrganismID:          organismID,
		Name:                "eco:b0001",
		Description:         "thrL; thr operon leader peptide",
		OrthologName:        strPtr("hsa:10458"),
		OrthologDescription: strPtr("actin-like 6A"),
		OrthologSpecies:     strPtr("hsa"),
		OrthologLength:      intPtr(429),
		OrthologSWScore:     intPtr(1250),
		OrthologIdentity:    floatPtr(45.5),
	}
	orphan := &domain.GeneRecord{
		OrganismID:  organismID,
		Name:        "eco:b0002",
		Description: "thrA; bifunctional aspartokinase",
	}

	t.Run("includes orphan genes with empty ortholog columns", func(t *testing.T) {
		genes := &MockGeneStore{}
		genes.On("List", mock.Anything, mock.MatchedBy(func(f store.GeneListFilter) bool {
			return f.OrganismID != nil && *f.OrganismID == organismID && f.HasOrtholog == nil
		})).Return([]*domain.GeneRecord{matched, orphan}, nil)

		exporter, err := NewCSVExporter(genes, slog.Default())
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, exporter.ExportOrganismGenes(ctx, &buf, organismID, true))

		want := "gene_name,gene_description,ortholog_name,ortholog_description," +
			"ortholog_species,ortholog_length,ortholog_sw_score,ortholog_identity\n" +
			"eco:b0001,thrL; thr operon leader peptide,hsa:10458,actin-like 6A,hsa,429,1250,45.50\n" +
			"eco:b0002,thrA; bifunctional aspartokinase,,,,,,\n"
		assert.Equal(t, want, buf.String())
	})

	t.Run("orthologs only filter narrows the listing", func(t *testing.T) {
		genes := &MockGeneStore{}
		genes.On("List", mock.Anything, mock.MatchedBy(func(f store.GeneListFilter) bool {
			return f.HasOrtholog != nil && *f.HasOrtholog
		})).Return([]*domain.GeneRecord{matched}, nil)

		exporter, err := NewCSVExporter(genes, slog.Default())
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, exporter.ExportOrganismGenes(ctx, &buf, organismID, false))
		assert.NotContains(t, buf.String(), "eco:b0002")
		genes.AssertExpectations(t)
	})

	t.Run("fields with commas are quoted", func(t *testing.T) {
		genes := &MockGeneStore{}
		genes.On("List", mock.Anything, mock.Anything).Return([]*domain.GeneRecord{
			{
				OrganismID:  organismID,
				Name:        "eco:b0003",
				Description: "thrB; homoserine kinase, ATP-dependent",
			},
		}, nil)

		exporter, err := NewCSVExporter(genes, slog.Default())
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, exporter.ExportOrganismGenes(ctx, &buf, organismID, true))
		assert.Contains(t, buf.String(), `"thrB; homoserine kinase, ATP-dependent"`)
	})
}
