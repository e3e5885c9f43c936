package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"colegio_backend/internals/features/documentos/controller"
)

// DocumentoPublicRoutes mounts under /api/public.
func DocumentoPublicRoutes(r fiber.Router, db *gorm.DB) {
	h := controller.NewDocumentoController(db)

	g := r.Group("/documentos")
	g.Get("/verificar/:codigo", h.Verify)
	g.Get("/verificar/:codigo/pdf", h.PDF)
}
