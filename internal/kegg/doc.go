// Package kegg implements a client for the KEGG REST API
// (https://rest.kegg.jp), the remote gene database used to enrich
// organisms with ortholog annotations.
//
// The public API allows 3 requests per second, so the client enforces a
// minimum interval between requests. Concurrent callers sharing one
// Client instance are serialized by the rate limiter; higher-level code
// is free to fan out, the client keeps the wire rate legal.
//
// Transient failures (network errors, rate-limit responses, server
// errors) are retried with capped exponential backoff. Only after the
// retry budget is exhausted does a call fail, with an error wrapping
// ErrServiceUnavailable that callers treat as permanent for that call.
package kegg
