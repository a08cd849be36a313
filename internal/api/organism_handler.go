package api

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/kegg-explore-api/internal/api/shared"
	"github.com/phrazzld/kegg-explore-api/internal/domain"
	"github.com/phrazzld/kegg-explore-api/internal/service"
)

// CreateOrganismRequest represents the request body for registering an organism
type CreateOrganismRequest struct {
	// Code is the KEGG organism code, e.g. "eco" or "hsa".
	Code string `json:"code" validate:"required,min=2,max=8,alphanum,lowercase"`
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// UpdateOrganismRequest represents the request body for updating an organism.
// Empty fields leave the stored value untouched.
type UpdateOrganismRequest struct {
	Code string `json:"code" validate:"omitempty,min=2,max=8,alphanum,lowercase"`
	Name string `json:"name" validate:"omitempty,min=1,max=255"`
}

// OrganismResponse represents the response data for an organism
type OrganismResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	JobID     string    `json:"job_id,omitempty"`
	JobError  string    `json:"job_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrganismHandler handles organism-related HTTP requests
type OrganismHandler struct {
	organismService service.OrganismService
	validator       *validator.Validate
}

// NewOrganismHandler creates a new OrganismHandler
func NewOrganismHandler(organismService service.OrganismService) *OrganismHandler {
	return &OrganismHandler{
		organismService: organismService,
		validator:       validator.New(),
	}
}

// CreateOrganism handles POST /api/organisms requests
func (h *OrganismHandler) CreateOrganism(w http.ResponseWriter, r *http.Request) {
	var req CreateOrganismRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	organism, err := h.organismService.CreateOrganism(r.Context(), req.Code, req.Name)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, organismToResponse(organism))
}

// ListOrganisms handles GET /api/organisms requests
func (h *OrganismHandler) ListOrganisms(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)

	organisms, err := h.organismService.ListOrganisms(r.Context(), limit, offset)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	responses := make([]OrganismResponse, 0, len(organisms))
	for _, organism := range organisms {
		responses = append(responses, organismToResponse(organism))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// GetOrganism handles GET /api/organisms/{id} requests
func (h *OrganismHandler) GetOrganism(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid organism ID")
		return
	}

	organism, err := h.organismService.GetOrganism(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, organismToResponse(organism))
}

// UpdateOrganism handles PUT /api/organisms/{id} requests
func (h *OrganismHandler) UpdateOrganism(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid organism ID")
		return
	}

	var req UpdateOrganismRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	organism, err := h.organismService.UpdateOrganism(r.Context(), id, req.Code, req.Name)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, organismToResponse(organism))
}

// DeleteOrganism handles DELETE /api/organisms/{id} requests
func (h *OrganismHandler) DeleteOrganism(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid organism ID")
		return
	}

	if err := h.organismService.DeleteOrganism(r.Context(), id); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// organismToResponse converts a domain.Organism to an OrganismResponse
func organismToResponse(organism *domain.Organism) OrganismResponse {
	return OrganismResponse{
		ID:        organism.ID.String(),
		Code:      organism.Code,
		Name:      organism.Name,
		Status:    string(organism.Status),
		JobID:     organism.JobID,
		JobError:  organism.JobError,
		CreatedAt: organism.CreatedAt,
		UpdatedAt: organism.UpdatedAt,
	}
}
