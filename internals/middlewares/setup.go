package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"colegio_backend/internals/configs"
	"colegio_backend/internals/middlewares/logger"
)

// SetupMiddlewares installs the global chain shared by every route.
func SetupMiddlewares(app *fiber.App) {
	app.Use(RecoveryMiddleware())
	app.Use(RequestContext(5 * time.Second))
	app.Use(logger.LoggerMiddleware(configs.GetEnv("APP_TIMEZONE")))
	app.Use(CorsMiddleware(configs.GetEnv("CORS_ORIGINS")))
	app.Use(GlobalRateLimiter())
}
