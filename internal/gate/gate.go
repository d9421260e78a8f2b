// Package gate combines identity classification and rate limiting into
// a single allow/deny/error decision per request.
package gate

import (
	"context"
	"net/http"

	"github.com/audexdev/IdeaSpark/internal/identity"
	"github.com/audexdev/IdeaSpark/internal/metrics"
	"github.com/audexdev/IdeaSpark/internal/ratelimit"
	"github.com/audexdev/IdeaSpark/pkg/logger"
)

// Outcome is the gate's verdict on a request.
type Outcome int

const (
	// OutcomeAllow lets the request through to the protected resource.
	OutcomeAllow Outcome = iota
	// OutcomeDeny rejects the request as over limit.
	OutcomeDeny
	// OutcomeError means the decision could not be made; the caller
	// must fail closed and not proceed to the protected resource.
	OutcomeError
)

// Decision is the gate's full answer for one request.
type Decision struct {
	Outcome           Outcome
	Tier              ratelimit.Tier
	RetryAfterMinutes int

	// SetCookie, when non-nil, must be attached to the response before
	// any body is written, on every outcome: identity continuity is
	// preserved even for a denied or failed first contact.
	SetCookie *http.Cookie
}

// Gate orchestrates classifier and limiter.
type Gate struct {
	classifier *identity.Classifier
	limiter    *ratelimit.Limiter
	log        *logger.Logger
}

// New creates a Gate.
func New(classifier *identity.Classifier, limiter *ratelimit.Limiter, log *logger.Logger) *Gate {
	return &Gate{
		classifier: classifier,
		limiter:    limiter,
		log:        log.With("component", "gate"),
	}
}

// Check classifies the request and enforces the governing limit.
// Store failures come back as OutcomeError, never as a deny: the two
// must stay distinguishable for the caller.
func (g *Gate) Check(ctx context.Context, r *http.Request, deviceID string) Decision {
	cl := g.classifier.Classify(r, deviceID)
	if cl.IssuedCookie != nil {
		metrics.RecordCookieIssued()
	}

	decision := Decision{
		Tier:      cl.Tier,
		SetCookie: cl.IssuedCookie,
	}

	res, err := g.limiter.Enforce(ctx, cl.Context)
	if err != nil {
		metrics.RecordStoreError()
		g.log.Error("rate decision failed",
			"tier", cl.Tier.String(),
			"error", err.Error(),
		)
		decision.Outcome = OutcomeError
		return decision
	}

	if !res.Allowed {
		metrics.RecordRateLimited(cl.Tier.String())
		decision.Outcome = OutcomeDeny
		decision.RetryAfterMinutes = res.RemainingMinutes
		return decision
	}

	decision.Outcome = OutcomeAllow
	return decision
}
