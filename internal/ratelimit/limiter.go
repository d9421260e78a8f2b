package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/audexdev/IdeaSpark/internal/store"
	"github.com/audexdev/IdeaSpark/pkg/logger"
)

// Limiter enforces fixed-window limits against a counter store. The
// store is the single source of truth; counts are never cached across
// requests, and correctness under concurrency rests entirely on the
// store's atomic increment.
type Limiter struct {
	store store.Store
	log   *logger.Logger
}

// NewLimiter creates a Limiter on the given store.
func NewLimiter(s store.Store, log *logger.Logger) *Limiter {
	return &Limiter{store: s, log: log.With("component", "ratelimit")}
}

// Enforce increments the counter for rc.Key and decides whether the
// request is allowed.
//
// The window is anchored to the first request that created the key: the
// expiry is set when the post-increment count is 1, and repaired
// whenever the observed TTL is negative (a key that somehow exists
// without an expiry must never become a window that never closes).
// Later increments within the window leave the expiry untouched.
func (l *Limiter) Enforce(ctx context.Context, rc Context) (*Result, error) {
	count, ttl, err := l.store.IncrWithTTL(ctx, rc.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	effective := ttl
	if count == 1 || ttl < 0 {
		if err := l.store.Expire(ctx, rc.Key, rc.TTL); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		effective = rc.TTL
	}

	res := &Result{
		Allowed:          count <= int64(rc.Limit),
		RemainingMinutes: ceilMinutes(effective),
		Count:            count,
	}

	if !res.Allowed {
		l.log.Info("limit exceeded",
			"tier", rc.Tier.String(),
			"key", rc.Key,
			"count", count,
			"limit", rc.Limit,
		)
	}

	return res, nil
}

// ceilMinutes converts a TTL into whole minutes, rounding up and
// clamping at zero.
func ceilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Minute - 1) / time.Minute)
}
