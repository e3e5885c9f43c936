package route

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"colegio_backend/internals/features/finance/cobranzas/controller"
)

// CobranzaAdminRoutes mounts under /api/a/:school_id.
func CobranzaAdminRoutes(r fiber.Router, db *gorm.DB, loc *time.Location) {
	h := controller.NewCobranzaController(db, loc)

	g := r.Group("/cobranzas")
	g.Get("/estadisticas", h.Stats)
	g.Get("/estadisticas/por-concepto", h.StatsByConcepto)
}
