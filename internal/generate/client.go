package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/audexdev/IdeaSpark/internal/config"
	"github.com/audexdev/IdeaSpark/internal/metrics"
	"github.com/audexdev/IdeaSpark/pkg/logger"
)

// Client is the HTTP client for the generation service. Outbound calls
// are throttled so a burst that clears per-client limits cannot melt
// the upstream; over-budget calls fail fast rather than queue.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	throttle   *rate.Limiter
	log        *logger.Logger
}

var _ Service = (*Client)(nil)

// NewClient creates a generation client from configuration.
func NewClient(cfg *config.GeneratorConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		throttle:   rate.NewLimiter(rate.Limit(cfg.MaxRPS), cfg.Burst),
		log:        log.With("component", "generate"),
	}
}

type generateResponse struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

// Generate calls the downstream service. The call is bounded by ctx;
// no retries happen here.
func (c *Client) Generate(ctx context.Context, req Request) (*Idea, error) {
	if !c.throttle.Allow() {
		metrics.RecordDownstreamFailure()
		return nil, ErrBusy
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrDownstream, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownstream, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.RecordDownstreamFailure()
		return nil, fmt.Errorf("%w: %v", ErrDownstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RecordDownstreamFailure()
		c.log.Warn("generation call failed", "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrDownstream, resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.RecordDownstreamFailure()
		return nil, fmt.Errorf("%w: decode response: %v", ErrDownstream, err)
	}
	if strings.TrimSpace(out.Text) == "" {
		metrics.RecordDownstreamFailure()
		return nil, ErrDownstreamEmpty
	}

	metrics.RecordIdeaGenerated()
	return &Idea{
		Category:    req.Category,
		Text:        out.Text,
		Lang:        out.Lang,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
