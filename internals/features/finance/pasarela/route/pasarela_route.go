package route

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	compService "colegio_backend/internals/features/finance/comprobantes/service"
	"colegio_backend/internals/features/finance/pasarela/controller"
)

// PasarelaPublicRoutes mounts the gateway webhook under /api/public.
func PasarelaPublicRoutes(r fiber.Router, db *gorm.DB, loc *time.Location, notifier compService.Notifier) {
	h := controller.NewPasarelaController(db, loc, notifier)

	r.Post("/pasarela/midtrans/notificacion", h.Notification)
}

// PasarelaUserRoutes mounts under /api/u/:school_id.
func PasarelaUserRoutes(r fiber.Router, db *gorm.DB, loc *time.Location, notifier compService.Notifier) {
	h := controller.NewPasarelaController(db, loc, notifier)

	r.Post("/cronogramas/:id/checkout", h.Checkout)
}
