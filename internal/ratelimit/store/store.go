// Package store provides the key-value registry behind the rate limiter.
//
// The in-memory store is the single-instance default. Horizontal
// deployments must swap in the redis store so all instances share one
// registry; the in-memory registry is explicitly a single-instance
// approximation.
package store

import (
	"context"
	"time"
)

// Record is the per-identity rate accounting state.
//
// Count never goes negative. WindowResetAt is always in the future
// relative to the record's last touch, except immediately before
// expiry-driven deletion.
type Record struct {
	Count         int       `json:"count"`
	WindowResetAt time.Time `json:"window_reset_at"`
	LastRequestAt time.Time `json:"last_request_at"`
}

// Store is the registry the limiter reads and writes.
type Store interface {
	// Get returns the record for key and whether one exists.
	Get(ctx context.Context, key string) (Record, bool, error)
	// Put persists the record for key. Implementations may expire the
	// record once its window has passed.
	Put(ctx context.Context, key string, rec Record) error
	// Delete removes the record for key, if present.
	Delete(ctx context.Context, key string) error
	// Sweep drops records whose window expired before now. Stores with
	// native expiry may treat this as a no-op.
	Sweep(ctx context.Context, now time.Time) error
}
