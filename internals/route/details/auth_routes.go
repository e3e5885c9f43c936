package details

import (
	authRoute "colegio_backend/internals/features/users/auth/route"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func AuthRoutes(app *fiber.App, db *gorm.DB, protected fiber.Handler) {
	authRoute.AuthRoutes(app, db, protected)
}
