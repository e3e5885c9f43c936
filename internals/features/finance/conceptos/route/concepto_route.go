package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"colegio_backend/internals/features/finance/conceptos/controller"
)

// ConceptoAdminRoutes mounts under /api/a/:school_id.
func ConceptoAdminRoutes(r fiber.Router, db *gorm.DB) {
	h := controller.NewConceptoController(db)

	g := r.Group("/conceptos")
	g.Get("/", h.List)
	g.Post("/", h.Upsert)
	g.Put("/:id", h.Upsert)
	g.Delete("/:id", h.Deactivate)
}

// ConceptoUserRoutes mounts under /api/u/:school_id.
func ConceptoUserRoutes(r fiber.Router, db *gorm.DB) {
	h := controller.NewConceptoController(db)

	r.Get("/conceptos/activos", h.ListActive)
}
