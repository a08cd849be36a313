package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/kegg-explore-api/internal/api/shared"
	"github.com/phrazzld/kegg-explore-api/internal/redact"
	"github.com/phrazzld/kegg-explore-api/internal/service"
)

// ProcessHandler handles processing-job HTTP requests
type ProcessHandler struct {
	processService  service.ProcessService
	organismService service.OrganismService
	exporter        *service.CSVExporter
}

// NewProcessHandler creates a new ProcessHandler
func NewProcessHandler(
	processService service.ProcessService,
	organismService service.OrganismService,
	exporter *service.CSVExporter,
) *ProcessHandler {
	return &ProcessHandler{
		processService:  processService,
		organismService: organismService,
		exporter:        exporter,
	}
}

// StartProcessing handles POST /api/processes/{organismID}/start requests.
// Repeated starts while a job is pending return the existing job ID.
func (h *ProcessHandler) StartProcessing(w http.ResponseWriter, r *http.Request) {
	organismID, err := getPathUUID(r, "organismID")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid organism ID")
		return
	}

	result, err := h.processService.StartProcessing(r.Context(), organismID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	status := http.StatusAccepted
	if result.AlreadyRunning {
		status = http.StatusOK
	}
	shared.RespondWithJSON(w, r, status, result)
}

// GetProgress handles GET /api/processes/{organismID}/progress requests
func (h *ProcessHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	organismID, err := getPathUUID(r, "organismID")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid organism ID")
		return
	}

	status, err := h.processService.GetProgress(r.Context(), organismID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, status)
}

// DeleteResults handles DELETE /api/processes/{organismID}/results requests
func (h *ProcessHandler) DeleteResults(w http.ResponseWriter, r *http.Request) {
	organismID, err := getPathUUID(r, "organismID")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid organism ID")
		return
	}

	if err := h.processService.DeleteResults(r.Context(), organismID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListProcesses handles GET /api/processes requests. The optional
// status query parameter filters by processing status.
func (h *ProcessHandler) ListProcesses(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.processService.ListProcesses(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, summaries)
}

// DownloadGenes handles GET /api/processes/{organismID}/download
// requests, streaming the organism's genes as a CSV attachment. The
// include_no_orthologs query parameter (default true) controls whether
// orphan genes are part of the export.
func (h *ProcessHandler) DownloadGenes(w http.ResponseWriter, r *http.Request) {
	organismID, err := getPathUUID(r, "organismID")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid organism ID")
		return
	}

	includeNoOrthologs := queryBool(r, "include_no_orthologs", true)

	// The organism is resolved before any body bytes are written, so
	// a missing organism still gets a proper JSON error response.
	organism, err := h.organismService.GetOrganism(r.Context(), organismID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	filename := service.CSVFilename(organism.Code, includeNoOrthologs)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	err = h.exporter.ExportOrganismGenes(r.Context(), w, organismID, includeNoOrthologs)
	if err != nil {
		// Headers are already sent; all that is left is to log.
		slog.Error("failed to stream gene export",
			"error", redact.Error(err),
			"organism_id", organismID,
			"trace_id", shared.GetTraceID(r.Context()))
	}
}
