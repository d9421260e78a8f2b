package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audexdev/IdeaSpark/internal/config"
	"github.com/audexdev/IdeaSpark/internal/generate"
	"github.com/audexdev/IdeaSpark/internal/store"
	"github.com/audexdev/IdeaSpark/pkg/logger"
)

type stubService struct{}

func (stubService) Generate(ctx context.Context, req generate.Request) (*generate.Idea, error) {
	return &generate.Idea{Category: req.Category, Text: "a stub idea", GeneratedAt: time.Now()}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{}
	cfg.Rate = config.RateConfig{CombinedLimit: 50, CookieLimit: 30, IPLimit: 20, Window: time.Hour}
	cfg.Cookie = config.CookieConfig{Name: "ideaspark_id", MaxAge: 365 * 24 * time.Hour}
	cfg.Server.ReadTimeout = time.Second

	s := NewWithDeps(cfg, logger.New(io.Discard, "error"), store.NewMemoryStore(), stubService{}, nil)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestServer_Endpoints(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	t.Run("health and ready respond", func(t *testing.T) {
		for _, path := range []string{"/health", "/ready"} {
			resp, err := client.Get(srv.URL + path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		}
	})

	t.Run("metrics endpoint responds", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("generate responds with an idea and request id", func(t *testing.T) {
		resp, err := client.Post(srv.URL+"/api/v1/generate", "application/json",
			strings.NewReader(`{"category":"tech"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

		var idea generate.Idea
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&idea))
		assert.Equal(t, "a stub idea", idea.Text)
	})

	t.Run("history routes are absent when unconfigured", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/api/v1/history")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestServer_RateLimitEndToEnd(t *testing.T) {
	srv := newTestServer(t)

	// All requests arrive from one address with no device id; cookies
	// are deliberately not replayed, pinning every request to the IP
	// tier.
	do := func() (*http.Response, error) {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/generate",
			strings.NewReader(`{"category":"tech"}`))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", "198.51.100.7")
		return srv.Client().Do(req)
	}

	for i := 0; i < 20; i++ {
		resp, err := do()
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, "request %d should pass", i+1)
	}

	resp, err := do()
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var body struct {
		Error     string `json:"error"`
		Remaining int    `json:"remaining"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "rate_limit", body.Error)
	assert.GreaterOrEqual(t, body.Remaining, 1)
	assert.LessOrEqual(t, body.Remaining, 60)
}
