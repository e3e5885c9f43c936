package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"colegio_backend/internals/features/finance/cobranzas/service"
	helper "colegio_backend/internals/helpers"
	helperAuth "colegio_backend/internals/helpers/auth"
	"colegio_backend/internals/helpers/dbtime"
)

type CobranzaController struct {
	Svc *service.Service
}

func NewCobranzaController(db *gorm.DB, loc *time.Location) *CobranzaController {
	return &CobranzaController{Svc: service.New(db, loc)}
}

// scope resolves the school and the reference date (?fecha=YYYY-MM-DD, default today).
func (h *CobranzaController) scope(c *fiber.Ctx) (schoolID uuid.UUID, today time.Time, err error) {
	sid, err := helperAuth.MustSchoolID(c)
	if err != nil {
		return sid, today, err
	}
	if err := helperAuth.EnsureStaffSchool(c, sid); err != nil {
		return sid, today, err
	}
	today = h.Svc.Today()
	if raw := strings.TrimSpace(c.Query("fecha")); raw != "" {
		if today, err = dbtime.ParseDate(raw, h.Svc.Loc); err != nil {
			return sid, today, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	return sid, today, nil
}

// GET /api/a/:school_id/cobranzas/estadisticas
func (h *CobranzaController) Stats(c *fiber.Ctx) error {
	schoolID, today, err := h.scope(c)
	if err != nil {
		return err
	}
	st, err := h.Svc.GetStats(c.UserContext(), schoolID, today)
	if err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, err.Error())
	}
	return helper.JsonOK(c, "ok", fiber.Map{
		"fecha":        dbtime.Format(today),
		"estadisticas": st,
	})
}

// GET /api/a/:school_id/cobranzas/estadisticas/por-concepto
func (h *CobranzaController) StatsByConcepto(c *fiber.Ctx) error {
	schoolID, today, err := h.scope(c)
	if err != nil {
		return err
	}
	list, err := h.Svc.GetStatsByConcepto(c.UserContext(), schoolID, today)
	if err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, err.Error())
	}
	return helper.JsonOK(c, "ok", fiber.Map{
		"fecha":     dbtime.Format(today),
		"conceptos": list,
	})
}
