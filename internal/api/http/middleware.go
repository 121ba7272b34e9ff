package httpapi

import (
	"crypto/subtle"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/i474232898/raincheck/internal/observability"
)

// Metrics records request counts and latencies. The route template is used as
// the label so ids in paths do not blow up cardinality.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// the error handler has not run yet
			status = statusFor(err)
		}
		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}

		labels := []string{c.Method(), route, strconv.Itoa(status)}
		observability.HTTPRequests.WithLabelValues(labels...).Inc()
		observability.HTTPDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		return err
	}
}

// AdminAuth guards the admin surface with a single shared secret sent as a bearer token.
// An empty secret locks the admin routes entirely.
func AdminAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return fiber.NewError(fiber.StatusServiceUnavailable, "admin access is not configured")
		}
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid admin secret")
		}
		return c.Next()
	}
}

// SubmitLimiter caps sponsorship submissions per client IP per minute.
func SubmitLimiter(limit int) fiber.Handler {
	if limit <= 0 {
		limit = DefaultSubmitLimit
	}
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many submissions; try again later")
		},
	})
}
