package ratelimit

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audexdev/IdeaSpark/internal/store"
	"github.com/audexdev/IdeaSpark/pkg/logger"
)

// scriptedStore returns canned replies and records Expire calls.
type scriptedStore struct {
	count     int64
	ttl       time.Duration
	incrErr   error
	expireErr error

	expireKeys []string
	expireTTLs []time.Duration
}

func (s *scriptedStore) IncrWithTTL(ctx context.Context, key string) (int64, time.Duration, error) {
	return s.count, s.ttl, s.incrErr
}

func (s *scriptedStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	s.expireKeys = append(s.expireKeys, key)
	s.expireTTLs = append(s.expireTTLs, ttl)
	return s.expireErr
}

func (s *scriptedStore) Ping(ctx context.Context) error { return nil }
func (s *scriptedStore) Close() error                   { return nil }

func testLogger() *logger.Logger {
	return logger.New(io.Discard, "error")
}

func TestLimiter_Enforce(t *testing.T) {
	ctx := context.Background()
	limits := DefaultLimits()

	t.Run("first request creates the window and sets expiry", func(t *testing.T) {
		s := &scriptedStore{count: 1, ttl: store.NoExpiry}
		l := NewLimiter(s, testLogger())

		res, err := l.Enforce(ctx, NewContext(limits, TierIP, "10.0.0.1"))
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, int64(1), res.Count)
		assert.Equal(t, []string{"rl:ip:10.0.0.1"}, s.expireKeys)
		assert.Equal(t, []time.Duration{time.Hour}, s.expireTTLs)
		assert.Equal(t, 60, res.RemainingMinutes, "fresh window reports the full hour")
	})

	t.Run("later requests leave the expiry untouched", func(t *testing.T) {
		s := &scriptedStore{count: 2, ttl: 45 * time.Minute}
		l := NewLimiter(s, testLogger())

		res, err := l.Enforce(ctx, NewContext(limits, TierIP, "10.0.0.1"))
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Empty(t, s.expireKeys)
		assert.Equal(t, 45, res.RemainingMinutes)
	})

	t.Run("missing expiry is repaired even mid-window", func(t *testing.T) {
		s := &scriptedStore{count: 7, ttl: store.NoExpiry}
		l := NewLimiter(s, testLogger())

		res, err := l.Enforce(ctx, NewContext(limits, TierCookie, "abc"))
		require.NoError(t, err)
		assert.Equal(t, []string{"rl:cookie:abc"}, s.expireKeys)
		assert.Equal(t, 60, res.RemainingMinutes)
	})

	t.Run("allowed flips exactly at limit+1", func(t *testing.T) {
		rc := NewContext(limits, TierIP, "10.0.0.1")

		atLimit := &scriptedStore{count: int64(rc.Limit), ttl: 30 * time.Minute}
		res, err := NewLimiter(atLimit, testLogger()).Enforce(ctx, rc)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "count == limit is still allowed")

		overLimit := &scriptedStore{count: int64(rc.Limit) + 1, ttl: 30 * time.Minute}
		res, err = NewLimiter(overLimit, testLogger()).Enforce(ctx, rc)
		require.NoError(t, err)
		assert.False(t, res.Allowed, "count == limit+1 is denied")
	})

	t.Run("remaining minutes round up", func(t *testing.T) {
		s := &scriptedStore{count: 3, ttl: 61 * time.Second}
		res, err := NewLimiter(s, testLogger()).Enforce(ctx, NewContext(limits, TierIP, "x"))
		require.NoError(t, err)
		assert.Equal(t, 2, res.RemainingMinutes)
	})

	t.Run("store failure on increment is ErrStoreUnavailable", func(t *testing.T) {
		s := &scriptedStore{incrErr: errors.New("connection refused")}
		_, err := NewLimiter(s, testLogger()).Enforce(ctx, NewContext(limits, TierIP, "x"))
		require.ErrorIs(t, err, ErrStoreUnavailable)
	})

	t.Run("store failure on expiry set is ErrStoreUnavailable", func(t *testing.T) {
		s := &scriptedStore{count: 1, ttl: store.NoExpiry, expireErr: errors.New("write timeout")}
		_, err := NewLimiter(s, testLogger()).Enforce(ctx, NewContext(limits, TierIP, "x"))
		require.ErrorIs(t, err, ErrStoreUnavailable)
	})
}

func TestLimiter_FixedWindow(t *testing.T) {
	limits := DefaultLimits()
	ctx := context.Background()

	t.Run("IP tier allows 20 then denies the 21st", func(t *testing.T) {
		l := NewLimiter(store.NewMemoryStore(), testLogger())
		rc := NewContext(limits, TierIP, "203.0.113.9")

		for i := 0; i < 20; i++ {
			res, err := l.Enforce(ctx, rc)
			require.NoError(t, err)
			require.True(t, res.Allowed, "request %d should be allowed", i+1)
		}

		res, err := l.Enforce(ctx, rc)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.GreaterOrEqual(t, res.RemainingMinutes, 1)
		assert.LessOrEqual(t, res.RemainingMinutes, 60)
	})

	t.Run("combined tier allows 50 then denies the 51st", func(t *testing.T) {
		l := NewLimiter(store.NewMemoryStore(), testLogger())
		rc := NewContext(limits, TierCombined, "a2f5c8d9e1b4a7c6d3f0e9b8a7c6d5e4f3a2b1c0d9e8f7a6b5c4d3e2f1a0b9c8")

		for i := 0; i < 50; i++ {
			res, err := l.Enforce(ctx, rc)
			require.NoError(t, err)
			require.True(t, res.Allowed, "request %d should be allowed", i+1)
		}

		res, err := l.Enforce(ctx, rc)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
	})

	t.Run("remaining minutes never increase within a window", func(t *testing.T) {
		now := time.Now()
		l := NewLimiter(store.NewMemoryStoreWithClock(func() time.Time { return now }), testLogger())
		rc := NewContext(limits, TierCookie, "session-1")

		prev := 61
		for i := 0; i < 5; i++ {
			res, err := l.Enforce(ctx, rc)
			require.NoError(t, err)
			assert.LessOrEqual(t, res.RemainingMinutes, prev)
			prev = res.RemainingMinutes
			now = now.Add(7 * time.Minute)
		}
	})

	t.Run("window resets after expiry", func(t *testing.T) {
		now := time.Now()
		l := NewLimiter(store.NewMemoryStoreWithClock(func() time.Time { return now }), testLogger())
		rc := NewContext(limits, TierIP, "198.51.100.4")

		for i := 0; i < 21; i++ {
			_, err := l.Enforce(ctx, rc)
			require.NoError(t, err)
		}

		now = now.Add(limits.Window + time.Minute)

		res, err := l.Enforce(ctx, rc)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "a new window opens after expiry")
		assert.Equal(t, int64(1), res.Count)
	})
}

func TestNewContext(t *testing.T) {
	limits := DefaultLimits()

	tests := []struct {
		tier      Tier
		id        string
		wantKey   string
		wantLimit int
	}{
		{TierCombined, "deadbeef", "rl:combined:deadbeef", 50},
		{TierCookie, "c-1", "rl:cookie:c-1", 30},
		{TierIP, "10.1.2.3", "rl:ip:10.1.2.3", 20},
	}

	for _, tt := range tests {
		rc := NewContext(limits, tt.tier, tt.id)
		assert.Equal(t, tt.wantKey, rc.Key)
		assert.Equal(t, tt.wantLimit, rc.Limit)
		assert.Equal(t, time.Hour, rc.TTL)
	}
}
