package controller

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"colegio_backend/internals/features/uploads/service"
	helper "colegio_backend/internals/helpers"
	helperAuth "colegio_backend/internals/helpers/auth"
)

type UploadController struct {
	Svc *service.Service
}

func NewUploadController(svc *service.Service) *UploadController {
	return &UploadController{Svc: svc}
}

// POST /api/u/uploads (multipart field "file")
func (h *UploadController) Upload(c *fiber.Ctx) error {
	if _, err := helperAuth.GetUserID(c); err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "multipart field 'file' is required")
	}

	res, err := h.Svc.Upload(c.UserContext(), fh)
	switch {
	case err == nil:
		return helper.JsonCreated(c, "file uploaded", res)
	case errors.Is(err, service.ErrTooLarge):
		return helper.JsonError(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrUnsupported):
		return helper.JsonError(c, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, service.ErrEmpty):
		return helper.JsonError(c, http.StatusBadRequest, err.Error())
	default:
		return helper.JsonError(c, http.StatusInternalServerError, err.Error())
	}
}
