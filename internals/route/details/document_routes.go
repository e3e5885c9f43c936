package details

import (
	DocumentoRoute "colegio_backend/internals/features/documentos/route"
	UploadRoute "colegio_backend/internals/features/uploads/route"
	"colegio_backend/internals/helpers/storage"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func DocumentoPublicRoutes(r fiber.Router, db *gorm.DB) {
	DocumentoRoute.DocumentoPublicRoutes(r, db)
}

// Uploads are per user, not per school.
func UploadUserRoutes(r fiber.Router, st storage.Storage, maxBytes int64) {
	UploadRoute.UploadRoutes(r, st, maxBytes)
}
