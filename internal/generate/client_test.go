package generate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audexdev/IdeaSpark/internal/config"
	"github.com/audexdev/IdeaSpark/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.GeneratorConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
		MaxRPS:  100,
		Burst:   100,
	}, logger.New(io.Discard, "error"))
}

func TestClient_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the generated idea", func(t *testing.T) {
		var gotReq Request
		var gotAuth string
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			require.Equal(t, "/v1/generate", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
			_, _ = w.Write([]byte(`{"text":"a podcast for night-shift workers","lang":"en"}`))
		})

		idea, err := c.Generate(ctx, Request{Category: "business", Lang: "en"})
		require.NoError(t, err)
		assert.Equal(t, "a podcast for night-shift workers", idea.Text)
		assert.Equal(t, "business", idea.Category)
		assert.Equal(t, "Bearer test-key", gotAuth)
		assert.Equal(t, "business", gotReq.Category)
		assert.False(t, idea.GeneratedAt.IsZero())
	})

	t.Run("empty content is ErrDownstreamEmpty", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"text":"  "}`))
		})

		_, err := c.Generate(ctx, Request{Category: "art"})
		require.ErrorIs(t, err, ErrDownstreamEmpty)
	})

	t.Run("upstream error status is ErrDownstream", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		})

		_, err := c.Generate(ctx, Request{Category: "art"})
		require.ErrorIs(t, err, ErrDownstream)
	})

	t.Run("unparseable body is ErrDownstream", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		})

		_, err := c.Generate(ctx, Request{Category: "art"})
		require.ErrorIs(t, err, ErrDownstream)
	})

	t.Run("exhausted throttle fails fast with ErrBusy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"text":"idea"}`))
		}))
		t.Cleanup(srv.Close)
		c := NewClient(&config.GeneratorConfig{
			BaseURL: srv.URL,
			Timeout: time.Second,
			MaxRPS:  1,
			Burst:   1,
		}, logger.New(io.Discard, "error"))

		_, err := c.Generate(ctx, Request{Category: "art"})
		require.NoError(t, err)

		_, err = c.Generate(ctx, Request{Category: "art"})
		require.ErrorIs(t, err, ErrBusy)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			// Drain the body so the server can watch for the client
			// disconnect; otherwise r.Context() is never cancelled and
			// srv.Close deadlocks in cleanup.
			_, _ = io.Copy(io.Discard, r.Body)
			<-r.Context().Done()
		})

		cancelled, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		_, err := c.Generate(cancelled, Request{Category: "art"})
		require.ErrorIs(t, err, ErrDownstream)
	})
}
