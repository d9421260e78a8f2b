package client

import (
	"encoding/json"
	"sort"
	"time"
)

// Advisory local limit: 20 generations per trailing hour.
const (
	GuardLimit  = 20
	GuardWindow = time.Hour
)

// Guard is the advisory local usage guard: a pruned log of recent
// generation timestamps. It pre-empts obviously over-limit requests
// before they reach the network and always fails open — a broken local
// store must never block usage.
type Guard struct {
	storage Storage
	limit   int
	window  time.Duration
	now     func() time.Time
}

// GuardOption customizes a Guard.
type GuardOption func(*Guard)

// WithClock injects the clock, for tests.
func WithClock(now func() time.Time) GuardOption {
	return func(g *Guard) { g.now = now }
}

// NewGuard creates a Guard on the given storage.
func NewGuard(storage Storage, opts ...GuardOption) *Guard {
	g := &Guard{
		storage: storage,
		limit:   GuardLimit,
		window:  GuardWindow,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check reports whether a generation is locally allowed, and when it
// is not, how many minutes remain until the oldest recorded request
// leaves the window.
func (g *Guard) Check() (allowed bool, remainingMinutes int) {
	now := g.now()
	timestamps, ok := g.load(now)
	if !ok {
		return true, 0
	}

	if len(timestamps) < g.limit {
		return true, 0
	}

	elapsed := now.Sub(msToTime(timestamps[0]))
	remaining := g.window - elapsed
	if remaining <= 0 {
		return false, 0
	}
	minutes := int((remaining + time.Minute - 1) / time.Minute)
	return false, minutes
}

// Record logs a generation attempt. Call it only after a generation
// was actually attempted, never speculatively.
func (g *Guard) Record() {
	now := g.now()
	timestamps, ok := g.load(now)
	if !ok {
		timestamps = nil
	}

	timestamps = append(timestamps, now.UnixMilli())
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })

	data, err := json.Marshal(timestamps)
	if err != nil {
		return
	}
	_ = g.storage.Set(UsageKey, string(data))
}

// load returns the stored timestamps pruned to the trailing window,
// sorted ascending. The second return is false when storage is
// unusable.
func (g *Guard) load(now time.Time) ([]int64, bool) {
	raw, err := g.storage.Get(UsageKey)
	if err != nil {
		return nil, false
	}
	if raw == "" {
		return nil, true
	}

	var timestamps []int64
	if err := json.Unmarshal([]byte(raw), &timestamps); err != nil {
		return nil, true
	}

	cutoff := now.Add(-g.window).UnixMilli()
	kept := timestamps[:0]
	for _, ts := range timestamps {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i] < kept[j] })
	return kept, true
}

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}
