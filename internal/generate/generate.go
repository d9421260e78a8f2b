// Package generate calls the downstream idea-generation service. The
// service is opaque: it is invoked only after the gate approves a
// request, and its failures are surfaced distinctly from rate-limit
// denials.
package generate

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDownstream is returned when the generation service errors.
	ErrDownstream = errors.New("idea generation failed")

	// ErrDownstreamEmpty is returned when the service answers with no
	// usable content.
	ErrDownstreamEmpty = errors.New("idea generation returned no content")

	// ErrBusy is returned when the outbound throttle has no capacity;
	// the upstream is protected from spikes that pass per-client limits.
	ErrBusy = errors.New("idea generation capacity exhausted")
)

// Request describes one generation call.
type Request struct {
	Category string `json:"category"`
	Lang     string `json:"lang,omitempty"`
}

// Idea is a generated result.
type Idea struct {
	Category    string    `json:"category"`
	Text        string    `json:"text"`
	Lang        string    `json:"lang,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Service generates ideas.
type Service interface {
	Generate(ctx context.Context, req Request) (*Idea, error)
}
