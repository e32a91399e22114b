package middleware

import (
	"bytes"
	"log/slog"
	"net/http/httptest"
	"testing"

	"docfeed/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestContextMiddleware_CopiesLocals(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "req-1")
		c.Locals("userID", uint(7))
		return c.Next()
	})
	app.Use(ContextMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		assert.Equal(t, "req-1", ctx.Value(RequestIDKey))
		assert.Equal(t, uint(7), ctx.Value(UserIDKey))
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestStructuredLogger_IncludesRequestFields(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger
	Logger = slog.New(&ctxHandler{slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})})
	t.Cleanup(func() { Logger = prev })

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "req-42")
		return c.Next()
	})
	app.Use(StructuredLogger())
	app.Get("/posts", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/posts", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	out := buf.String()
	assert.Contains(t, out, "request processed")
	assert.Contains(t, out, "path=/posts")
	assert.Contains(t, out, "status=200")
	assert.Contains(t, out, "request_id=req-42")
}

func TestTracingMiddleware_SetsTraceHeader(t *testing.T) {
	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		_, ok := c.Locals("traceID").(string)
		assert.True(t, ok)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
}

func TestTracingMiddleware_TagsPostAndUser(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := observability.Tracer
	observability.Tracer = tp.Tracer("docfeed-test")
	t.Cleanup(func() { observability.Tracer = prev })

	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Post("/posts/:id/like", func(c *fiber.Ctx) error {
		c.Locals("userID", uint(9))
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/posts/:id", func(c *fiber.Ctx) error {
		return fiber.ErrInternalServerError
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/posts/42/like", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	_, err = app.Test(httptest.NewRequest("GET", "/posts/7", nil))
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 2)

	like := spans[0]
	assert.Equal(t, "POST /posts/:id/like", like.Name())
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range like.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, int64(42), attrs["docfeed.post.id"].AsInt64())
	assert.Equal(t, int64(9), attrs["docfeed.user.id"].AsInt64())
	assert.Equal(t, "/posts/:id/like", attrs["http.route"].AsString())
	assert.Equal(t, codes.Unset, like.Status().Code)

	failed := spans[1]
	assert.Equal(t, "GET /posts/:id", failed.Name())
	assert.Equal(t, codes.Error, failed.Status().Code)
}

func TestInitMetrics_ReturnsSingleton(t *testing.T) {
	a := InitMetrics("docfeed-test")
	b := InitMetrics("other")
	assert.Same(t, a, b)
}
