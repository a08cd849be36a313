package kegg

import "errors"

// Common errors returned by the KEGG client.
var (
	// ErrServiceUnavailable indicates that a request failed after
	// exhausting the full retry budget. Callers treat it as permanent
	// for the call in question; a later call may still succeed.
	ErrServiceUnavailable = errors.New("kegg service unavailable")

	// ErrInvalidOrganismCode indicates a request was attempted with an
	// empty organism code.
	ErrInvalidOrganismCode = errors.New("organism code cannot be empty")

	// ErrInvalidKOID indicates a request was attempted with an empty
	// KO group identifier.
	ErrInvalidKOID = errors.New("ko id cannot be empty")
)
