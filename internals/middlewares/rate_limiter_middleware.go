package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	helper "colegio_backend/internals/helpers"
)

func ipLimiter(max int, window time.Duration, msg string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, msg)
		},
	})
}

// Global limiter for every endpoint
func GlobalRateLimiter() fiber.Handler {
	return ipLimiter(100, time.Minute, "too many requests, try again later")
}

// Login is stricter
func LoginRateLimiter() fiber.Handler {
	return ipLimiter(5, time.Minute, "too many login attempts, wait a moment")
}

func UploadRateLimiter() fiber.Handler {
	return ipLimiter(20, time.Minute, "too many uploads, wait a moment")
}
