// Package ratelimit provides fixed-window rate limiting over a counter store.
package ratelimit

import (
	"errors"
	"fmt"
	"time"

	"github.com/audexdev/IdeaSpark/internal/config"
)

// ErrStoreUnavailable is returned when the counter store cannot be
// reached or answers with something unusable. Callers must treat it as
// fatal to the request (fail closed), never as a deny.
var ErrStoreUnavailable = errors.New("rate limit store unavailable")

// Tier is the identity granularity used for a rate-limit key, in
// decreasing priority: combined device hash, session cookie, bare IP.
type Tier int

const (
	TierCombined Tier = iota
	TierCookie
	TierIP
)

// String returns the tier name used in keys, logs and metrics.
func (t Tier) String() string {
	switch t {
	case TierCombined:
		return "combined"
	case TierCookie:
		return "cookie"
	default:
		return "ip"
	}
}

// Context carries everything the limiter needs for one decision.
type Context struct {
	Tier  Tier
	Key   string
	Limit int
	TTL   time.Duration
}

// Limits maps each tier to its per-window request limit.
type Limits struct {
	Combined int
	Cookie   int
	IP       int
	Window   time.Duration
}

// LimitsFromConfig builds Limits from application configuration.
func LimitsFromConfig(cfg *config.RateConfig) Limits {
	return Limits{
		Combined: cfg.CombinedLimit,
		Cookie:   cfg.CookieLimit,
		IP:       cfg.IPLimit,
		Window:   cfg.Window,
	}
}

// DefaultLimits returns the production limits: 50/hour combined,
// 30/hour cookie, 20/hour IP.
func DefaultLimits() Limits {
	return Limits{Combined: 50, Cookie: 30, IP: 20, Window: time.Hour}
}

// ForTier returns the limit governing the given tier.
func (l Limits) ForTier(t Tier) int {
	switch t {
	case TierCombined:
		return l.Combined
	case TierCookie:
		return l.Cookie
	default:
		return l.IP
	}
}

// NewContext builds the rate context for an identifier on a tier.
// Keys take the form rl:{tier}:{identifier}.
func NewContext(l Limits, t Tier, identifier string) Context {
	return Context{
		Tier:  t,
		Key:   fmt.Sprintf("rl:%s:%s", t, identifier),
		Limit: l.ForTier(t),
		TTL:   l.Window,
	}
}

// Result is the outcome of one limiter decision.
type Result struct {
	Allowed          bool
	RemainingMinutes int // minutes until the window closes
	Count            int64
}
