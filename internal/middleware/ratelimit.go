package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"docfeed/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

// CodeRateLimited is the error code returned with 429 responses.
const CodeRateLimited = "RATE_LIMITED"

var errNoRedis = errors.New("rate limit store unavailable")

// RateLimited counts rejected requests by rule.
var RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "docfeed_rate_limited_total",
	Help: "Requests rejected by a rate limit rule",
}, []string{"rule"})

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// Rule is a fixed-window limit applied per caller to one group of write endpoints.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
	Policy FailPolicy
}

// Write-path rules. Reads are only covered by the global per-IP limiter.
var (
	SignupRule        = Rule{Name: "signup", Limit: 5, Window: 10 * time.Minute}
	LoginRule         = Rule{Name: "login", Limit: 10, Window: 5 * time.Minute}
	CreatePostRule    = Rule{Name: "create_post", Limit: 10, Window: 5 * time.Minute}
	CreateCommentRule = Rule{Name: "create_comment", Limit: 20, Window: time.Minute}
	ToggleLikeRule    = Rule{Name: "toggle_like", Limit: 60, Window: time.Minute}
)

// RateLimiter enforces Rules with counters stored in Redis.
type RateLimiter struct {
	rdb     *redis.Client
	enabled bool
}

// NewRateLimiter returns a limiter that is a no-op in the test and development environments.
func NewRateLimiter(rdb *redis.Client, env string) *RateLimiter {
	return &RateLimiter{
		rdb:     rdb,
		enabled: env != "test" && env != "development" && env != "",
	}
}

// Allow counts one hit for subject under rule. When the hit is rejected, retryAfter is
// the time left in the current window.
func (l *RateLimiter) Allow(ctx context.Context, rule Rule, subject string) (allowed bool, retryAfter time.Duration, err error) {
	if !l.enabled {
		return true, 0, nil
	}
	if l.rdb == nil {
		return false, 0, errNoRedis
	}

	key := fmt.Sprintf("docfeed:rl:%s:%s", rule.Name, subject)
	cnt, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if cnt == 1 {
		if err := l.rdb.Expire(ctx, key, rule.Window).Err(); err != nil {
			return false, 0, err
		}
	}
	if cnt <= int64(rule.Limit) {
		return true, 0, nil
	}

	ttl, err := l.rdb.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		ttl = rule.Window
	}
	return false, ttl, nil
}

// Handler returns a Fiber middleware enforcing rule. Authenticated callers are keyed by
// user id, anonymous ones (signup, login) by remote IP.
func (l *RateLimiter) Handler(rule Rule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		allowed, retryAfter, err := l.Allow(c.UserContext(), rule, limitSubject(c))
		if err != nil {
			if rule.Policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit fail-closed",
					slog.String("rule", rule.Name),
					slog.String("error", err.Error()),
				)
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Error: "Rate limit unavailable",
					Code:  CodeRateLimited,
				})
			}
			return c.Next()
		}

		if !allowed {
			RateLimited.WithLabelValues(rule.Name).Inc()
			secs := int(retryAfter.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  CodeRateLimited,
			})
		}
		return c.Next()
	}
}

func limitSubject(c *fiber.Ctx) string {
	if uid := c.Locals("userID"); uid != nil {
		return fmt.Sprintf("user:%v", uid)
	}
	return "ip:" + c.IP()
}
