package route

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"colegio_backend/internals/features/finance/cronogramas/controller"
)

// CronogramaAdminRoutes mounts under /api/a/:school_id.
func CronogramaAdminRoutes(r fiber.Router, db *gorm.DB, loc *time.Location) {
	h := controller.NewCronogramaController(db, loc)

	g := r.Group("/cronogramas")
	g.Get("/", h.List)
	g.Post("/generar", h.Generate)
	g.Post("/mora/recalcular", h.Accrue)
	g.Get("/:id", h.Get)
	g.Patch("/:id", h.Adjust)
	g.Delete("/:id", h.Delete)
	g.Post("/:id/pagos", h.ManualPayment)
}

// CronogramaUserRoutes mounts under /api/u/:school_id.
func CronogramaUserRoutes(r fiber.Router, db *gorm.DB, loc *time.Location) {
	h := controller.NewCronogramaController(db, loc)

	r.Get("/mis-cronogramas", h.ListMine)
}
