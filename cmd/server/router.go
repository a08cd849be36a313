package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/phrazzld/kegg-explore-api/internal/api"
	apiMiddleware "github.com/phrazzld/kegg-explore-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	organismHandler := api.NewOrganismHandler(app.organismService)
	geneHandler := api.NewGeneHandler(app.geneService)
	processHandler := api.NewProcessHandler(app.processService, app.organismService, app.csvExporter)

	r.Route("/api", func(r chi.Router) {
		// Organism CRUD
		r.Post("/organisms", organismHandler.CreateOrganism)
		r.Get("/organisms", organismHandler.ListOrganisms)
		r.Get("/organisms/{id}", organismHandler.GetOrganism)
		r.Put("/organisms/{id}", organismHandler.UpdateOrganism)
		r.Delete("/organisms/{id}", organismHandler.DeleteOrganism)

		// Gene access
		r.Get("/genes", geneHandler.ListGenes)
		r.Get("/genes/{id}", geneHandler.GetGene)
		r.Delete("/genes/{id}", geneHandler.DeleteGene)

		// Processing pipeline
		r.Get("/processes", processHandler.ListProcesses)
		r.Post("/processes/{organismID}/start", processHandler.StartProcessing)
		r.Get("/processes/{organismID}/progress", processHandler.GetProgress)
		r.Delete("/processes/{organismID}/results", processHandler.DeleteResults)
		r.Get("/processes/{organismID}/download", processHandler.DownloadGenes)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	return r
}
