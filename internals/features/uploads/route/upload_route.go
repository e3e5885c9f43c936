package route

import (
	"github.com/gofiber/fiber/v2"

	"colegio_backend/internals/features/uploads/controller"
	"colegio_backend/internals/features/uploads/service"
	"colegio_backend/internals/helpers/storage"
	"colegio_backend/internals/middlewares"
)

// UploadRoutes mounts under /api/u (token required, no school scope).
func UploadRoutes(r fiber.Router, st storage.Storage, maxBytes int64) {
	h := controller.NewUploadController(service.New(st, maxBytes))

	r.Post("/uploads", middlewares.UploadRateLimiter(), h.Upload)
}
