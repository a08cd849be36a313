package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/phrazzld/kegg-explore-api/internal/service"
	"github.com/phrazzld/kegg-explore-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, service.ErrOrganismNotFound),
		errors.Is(err, service.ErrGeneNotFound),
		errors.Is(err, store.ErrOrganismNotFound),
		errors.Is(err, store.ErrGeneNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrOrganismCodeExists),
		errors.Is(err, store.ErrCodeExists):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, service.ErrOrganismNotFound),
		errors.Is(err, store.ErrOrganismNotFound):
		return "Organism not found"

	case errors.Is(err, service.ErrGeneNotFound),
		errors.Is(err, store.ErrGeneNotFound):
		return "Gene not found"

	case errors.Is(err, service.ErrOrganismCodeExists),
		errors.Is(err, store.ErrCodeExists):
		return "Organism code already registered"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example format:
		// "Key: 'CreateOrganismRequest.Code' Error:Field validation for 'Code' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) > 1 {
			return "Validation failed: " + strings.TrimSpace(parts[1])
		}
	}

	return "Invalid request data"
}
