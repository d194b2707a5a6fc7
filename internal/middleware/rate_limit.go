package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/peergrade-api/internal/utils"
)

const codeRateLimited = "RATE_LIMITED"

// RateLimit throttles a route per authenticated user, falling back to the client IP.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return rateLimitKey(identifier, c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%.0f", window.Seconds()))
			return utils.Fail(c, fiber.StatusTooManyRequests, codeRateLimited, "too many requests, try again later", nil)
		},
	})
}

func rateLimitKey(identifier string, c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(uint); ok && id != 0 {
		return fmt.Sprintf("%s:user:%d", identifier, id)
	}
	return fmt.Sprintf("%s:ip:%s", identifier, c.IP())
}
