// Package api contains the HTTP handlers for the organism, gene and
// processing endpoints, plus shared helpers for error mapping and
// request parsing. Routing lives in cmd/server.
package api
