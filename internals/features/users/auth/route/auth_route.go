package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"colegio_backend/internals/features/users/auth/controller"
	"colegio_backend/internals/middlewares"
)

// AuthRoutes mounts /api/auth. protected is the JWT middleware.
func AuthRoutes(app *fiber.App, db *gorm.DB, protected fiber.Handler) {
	h := controller.NewAuthController(db)

	g := app.Group("/api/auth")
	g.Post("/login", middlewares.LoginRateLimiter(), h.Login)
	g.Post("/login-google", middlewares.LoginRateLimiter(), h.LoginGoogle)
	g.Post("/logout", protected, h.Logout)
	g.Get("/me", protected, h.Me)
}
