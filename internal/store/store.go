// Package store provides the counter store backing the rate limiter.
//
// A Store exposes the three primitives fixed-window counting needs:
// an atomic increment that also observes the key's remaining TTL in the
// same round trip, an explicit expiry set, and a health check. Two
// production implementations exist: Redis (go-redis pipeline) and an
// authenticated HTTP pipeline endpoint speaking the same commands.
package store

import (
	"context"
	"errors"
	"time"
)

// NoExpiry is the TTL reported for a key that exists without an expiry,
// matching the redis TTL convention of a negative reply.
const NoExpiry = -1 * time.Second

// ErrMalformedReply is returned when the backing store answers with
// something the client cannot interpret.
var ErrMalformedReply = errors.New("malformed store reply")

// Store is the counter store interface.
type Store interface {
	// IncrWithTTL atomically increments the counter at key and reports
	// the new count together with the key's remaining TTL, observed in
	// the same round trip. A negative TTL means the key has no expiry.
	IncrWithTTL(ctx context.Context, key string) (count int64, ttl time.Duration, err error)

	// Expire sets the key's expiry.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}
