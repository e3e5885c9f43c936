package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"colegio_backend/internals/configs"
	"colegio_backend/internals/features/documentos/service"
	helper "colegio_backend/internals/helpers"
)

type DocumentoController struct {
	Svc *service.Service
}

func NewDocumentoController(db *gorm.DB) *DocumentoController {
	return &DocumentoController{Svc: service.New(db)}
}

func verifyURL(code string) string {
	return strings.TrimRight(configs.GetEnv("PUBLIC_BASE_URL"), "/") + "/api/public/documentos/verificar/" + code
}

// GET /api/public/documentos/verificar/:codigo
func (h *DocumentoController) Verify(c *fiber.Ctx) error {
	doc, err := h.Svc.Verify(c.UserContext(), c.Params("codigo"))
	if errors.Is(err, service.ErrNotFound) {
		return helper.JsonError(c, http.StatusNotFound, "no document matches this code")
	}
	if err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, err.Error())
	}
	return helper.JsonOK(c, "document is valid", fiber.Map{
		"valido":     true,
		"codigo":     doc.DocumentoCodigo,
		"tipo":       doc.DocumentoTipo,
		"titulo":     doc.DocumentoTitulo,
		"emitido_at": doc.DocumentoEmitidoAt,
		"detalle":    doc.DocumentoMetadata,
	})
}

// GET /api/public/documentos/verificar/:codigo/pdf
func (h *DocumentoController) PDF(c *fiber.Ctx) error {
	doc, err := h.Svc.Verify(c.UserContext(), c.Params("codigo"))
	if errors.Is(err, service.ErrNotFound) {
		return helper.JsonError(c, http.StatusNotFound, "no document matches this code")
	}
	if err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, err.Error())
	}
	body, err := service.RenderPDF(doc, configs.GetEnv("APP_NAME"), verifyURL(doc.DocumentoCodigo))
	if err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, err.Error())
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+doc.DocumentoCodigo+`.pdf"`)
	return c.Send(body)
}
