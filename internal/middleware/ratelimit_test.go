package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"docfeed/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRateLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	rule := Rule{Name: "create_comment", Limit: 2, Window: time.Minute}

	t.Run("disabled in test and development", func(t *testing.T) {
		for _, env := range []string{"test", "development", ""} {
			allowed, _, err := NewRateLimiter(nil, env).Allow(ctx, rule, "user:1")
			assert.NoError(t, err, env)
			assert.True(t, allowed, env)
		}
	})

	t.Run("nil redis in production", func(t *testing.T) {
		allowed, _, err := NewRateLimiter(nil, "production").Allow(ctx, rule, "user:1")
		assert.ErrorIs(t, err, errNoRedis)
		assert.False(t, allowed)
	})

	t.Run("counts within window", func(t *testing.T) {
		mr, rdb := newMiniRedis(t)
		l := NewRateLimiter(rdb, "production")

		for i := 0; i < 2; i++ {
			allowed, _, err := l.Allow(ctx, rule, "user:7")
			require.NoError(t, err)
			assert.True(t, allowed)
		}
		allowed, retryAfter, err := l.Allow(ctx, rule, "user:7")
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Greater(t, retryAfter, time.Duration(0))
		assert.LessOrEqual(t, retryAfter, time.Minute)
		assert.True(t, mr.Exists("docfeed:rl:create_comment:user:7"))

		// other callers and rules have their own counters
		allowed, _, err = l.Allow(ctx, rule, "user:8")
		require.NoError(t, err)
		assert.True(t, allowed)
		allowed, _, err = l.Allow(ctx, ToggleLikeRule, "user:7")
		require.NoError(t, err)
		assert.True(t, allowed)

		mr.FastForward(2 * time.Minute)
		allowed, _, err = l.Allow(ctx, rule, "user:7")
		require.NoError(t, err)
		assert.True(t, allowed)
	})
}

func TestRateLimiter_Handler(t *testing.T) {
	_, rdb := newMiniRedis(t)
	l := NewRateLimiter(rdb, "production")
	rule := Rule{Name: "like_handler_test", Limit: 1, Window: time.Minute}

	app := fiber.New()
	app.Post("/posts/:id/like", func(c *fiber.Ctx) error {
		c.Locals("userID", uint(3))
		return c.Next()
	}, l.Handler(rule), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/posts/1/like", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// the counter is per user, not per post
	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/posts/2/like", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))

	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, CodeRateLimited, body.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(RateLimited.WithLabelValues(rule.Name)))
}

func TestRateLimiter_FailPolicy(t *testing.T) {
	l := NewRateLimiter(nil, "production")

	tests := []struct {
		name   string
		policy FailPolicy
		want   int
	}{
		{"fail open", FailOpen, http.StatusCreated},
		{"fail closed", FailClosed, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			rule := Rule{Name: "create_post", Limit: 1, Window: time.Minute, Policy: tt.policy}
			app.Post("/posts", l.Handler(rule), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusCreated)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/posts", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
