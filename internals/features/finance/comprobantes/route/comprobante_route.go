package route

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"colegio_backend/internals/features/finance/comprobantes/controller"
	"colegio_backend/internals/features/finance/comprobantes/service"
)

// ComprobanteAdminRoutes mounts under /api/a/:school_id.
func ComprobanteAdminRoutes(r fiber.Router, db *gorm.DB, loc *time.Location, notifier service.Notifier) {
	h := controller.NewComprobanteController(db, loc, notifier)

	g := r.Group("/comprobantes")
	g.Get("/", h.List)
	g.Get("/:id", h.Get)
	g.Post("/:id/aprobar", h.Approve)
	g.Post("/:id/rechazar", h.Reject)
}

// ComprobanteUserRoutes mounts under /api/u/:school_id.
func ComprobanteUserRoutes(r fiber.Router, db *gorm.DB, loc *time.Location, notifier service.Notifier) {
	h := controller.NewComprobanteController(db, loc, notifier)

	g := r.Group("/comprobantes")
	g.Get("/", h.ListMine)
	g.Post("/", h.Submit)
}
