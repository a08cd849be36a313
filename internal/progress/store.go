// Package progress tracks real-time progress of organism processing
// jobs in a TTL-expiring key-value store.
//
// Progress is ephemeral by design. Each write refreshes a 24 hour TTL,
// so abandoned entries disappear on their own and readers fall back to
// the durable organism status when no entry exists.
package progress

import (
	"context"
	"time"
)

// KeyValueStore is the storage surface the tracker needs. The Redis
// implementation backs production; the in-memory one backs tests and
// local development.
type KeyValueStore interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes value under key with the given time to live.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
