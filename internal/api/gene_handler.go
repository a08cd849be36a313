package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/kegg-explore-api/internal/api/shared"
	"github.com/phrazzld/kegg-explore-api/internal/domain"
	"github.com/phrazzld/kegg-explore-api/internal/service"
	"github.com/phrazzld/kegg-explore-api/internal/store"
)

// maxGeneListLimit caps one page of the gene listing.
const maxGeneListLimit = 1000

// GeneResponse represents the response data for a gene
type GeneResponse struct {
	ID          string `json:"id"`
	OrganismID  string `json:"organism_id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	OrthologName        *string  `json:"ortholog_name,omitempty"`
	OrthologDescription *string  `json:"ortholog_description,omitempty"`
	OrthologSpecies     *string  `json:"ortholog_species,omitempty"`
	OrthologLength      *int     `json:"ortholog_length,omitempty"`
	OrthologSWScore     *int     `json:"ortholog_sw_score,omitempty"`
	OrthologIdentity    *float64 `json:"ortholog_identity,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GeneHandler handles gene-related HTTP requests
type GeneHandler struct {
	geneService service.GeneService
}

// NewGeneHandler creates a new GeneHandler
func NewGeneHandler(geneService service.GeneService) *GeneHandler {
	return &GeneHandler{geneService: geneService}
}

// ListGenes handles GET /api/genes requests. Supported query
// parameters: organism_id, with_orthologs, limit, offset.
func (h *GeneHandler) ListGenes(w http.ResponseWriter, r *http.Request) {
	filter := store.GeneListFilter{
		Limit:  queryInt(r, "limit", 100),
		Offset: queryInt(r, "offset", 0),
	}
	if filter.Limit <= 0 || filter.Limit > maxGeneListLimit {
		filter.Limit = maxGeneListLimit
	}

	if raw := r.URL.Query().Get("organism_id"); raw != "" {
		organismID, err := uuid.Parse(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid organism_id")
			return
		}
		filter.OrganismID = &organismID
	}

	if raw := r.URL.Query().Get("with_orthologs"); raw != "" {
		withOrthologs := queryBool(r, "with_orthologs", false)
		filter.HasOrtholog = &withOrthologs
	}

	genes, err := h.geneService.ListGenes(r.Context(), filter)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	responses := make([]GeneResponse, 0, len(genes))
	for _, gene := range genes {
		responses = append(responses, geneToResponse(gene))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// GetGene handles GET /api/genes/{id} requests
func (h *GeneHandler) GetGene(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid gene ID")
		return
	}

	gene, err := h.geneService.GetGene(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, geneToResponse(gene))
}

// DeleteGene handles DELETE /api/genes/{id} requests
func (h *GeneHandler) DeleteGene(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid gene ID")
		return
	}

	if err := h.geneService.DeleteGene(r.Context(), id); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// geneToResponse converts a domain.GeneRecord to a GeneResponse
func geneToResponse(gene *domain.GeneRecord) GeneResponse {
	return GeneResponse{
		ID:                  gene.ID.String(),
		OrganismID:          gene.OrganismID.String(),
		Name:                gene.Name,
		Description:         gene.Description,
		OrthologName:        gene.OrthologName,
		OrthologDescription: gene.OrthologDescription,
		OrthologSpecies:     gene.OrthologSpecies,
		OrthologLength:      gene.OrthologLength,
		OrthologSWScore:     gene.OrthologSWScore,
		OrthologIdentity:    gene.OrthologIdentity,
		CreatedAt:           gene.CreatedAt,
		UpdatedAt:           gene.UpdatedAt,
	}
}
