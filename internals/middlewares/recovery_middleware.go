package middlewares

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"colegio_backend/internals/configs"
)

// RecoveryMiddleware turns a panic into a 500 and reports it to Rollbar.
func RecoveryMiddleware() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e any) {
			recover.ConfigDefault.StackTraceHandler(c, e)
			configs.ReportError(fmt.Errorf("panic: %v", e), map[string]any{
				"method": c.Method(),
				"path":   c.Path(),
			})
		},
	})
}
