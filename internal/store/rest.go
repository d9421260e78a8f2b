package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/audexdev/IdeaSpark/internal/config"
)

// RestStore implements Store against an HTTP pipeline endpoint. Commands
// are posted as a JSON array of command arrays to {base}/pipeline with a
// bearer token; replies come back as an array of {"result": ...} objects
// in command order.
type RestStore struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ Store = (*RestStore)(nil)

// NewRestStore creates an HTTP pipeline counter store.
func NewRestStore(cfg *config.StoreConfig) *RestStore {
	return &RestStore{
		baseURL: cfg.RestURL,
		token:   cfg.RestToken,
		client:  &http.Client{},
	}
}

type pipelineReply struct {
	Result json.RawMessage `json:"result"`
}

// pipeline posts the commands and returns one reply per command.
func (s *RestStore) pipeline(ctx context.Context, commands [][]string) ([]pipelineReply, error) {
	body, err := json.Marshal(commands)
	if err != nil {
		return nil, fmt.Errorf("encode pipeline: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/pipeline", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build pipeline request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pipeline request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pipeline request failed: status %d", resp.StatusCode)
	}

	var replies []pipelineReply
	if err := json.NewDecoder(resp.Body).Decode(&replies); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if len(replies) != len(commands) {
		return nil, fmt.Errorf("%w: %d replies for %d commands", ErrMalformedReply, len(replies), len(commands))
	}
	return replies, nil
}

// IncrWithTTL issues INCR and TTL in a single pipeline round trip.
func (s *RestStore) IncrWithTTL(ctx context.Context, key string) (int64, time.Duration, error) {
	replies, err := s.pipeline(ctx, [][]string{
		{"INCR", key},
		{"TTL", key},
	})
	if err != nil {
		return 0, 0, err
	}

	count, err := replyAsInt(replies[0])
	if err != nil {
		return 0, 0, err
	}
	ttlSeconds, err := replyAsInt(replies[1])
	if err != nil {
		return 0, 0, err
	}
	return count, time.Duration(ttlSeconds) * time.Second, nil
}

// Expire sets the key's expiry via an EXPIRE command.
func (s *RestStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	seconds := int64(ttl / time.Second)
	replies, err := s.pipeline(ctx, [][]string{
		{"EXPIRE", key, strconv.FormatInt(seconds, 10)},
	})
	if err != nil {
		return err
	}
	if _, err := replyAsInt(replies[0]); err != nil {
		return err
	}
	return nil
}

// Ping issues a PING command.
func (s *RestStore) Ping(ctx context.Context) error {
	_, err := s.pipeline(ctx, [][]string{{"PING"}})
	return err
}

// Close is a no-op; the HTTP client holds no persistent connections
// worth tearing down explicitly.
func (s *RestStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// replyAsInt interprets a pipeline reply as an integer.
func replyAsInt(r pipelineReply) (int64, error) {
	var n int64
	if err := json.Unmarshal(r.Result, &n); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrMalformedReply, string(r.Result))
	}
	return n, nil
}
