package controller

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"colegio_backend/internals/features/finance/conceptos/dto"
	"colegio_backend/internals/features/finance/conceptos/service"
	helper "colegio_backend/internals/helpers"
	helperAuth "colegio_backend/internals/helpers/auth"
)

type ConceptoController struct {
	Svc *service.Service
}

func NewConceptoController(db *gorm.DB) *ConceptoController {
	return &ConceptoController{Svc: service.New(db)}
}

func writeErr(c *fiber.Ctx, err error) error {
	var fe *helper.FieldErrors
	switch {
	case errors.As(err, &fe):
		return helper.JsonValidationError(c, fe.Fields)
	case errors.Is(err, service.ErrNotFound):
		return helper.JsonError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNombreDuplicado):
		return helper.JsonError(c, http.StatusConflict, err.Error())
	default:
		return helper.JsonError(c, http.StatusInternalServerError, err.Error())
	}
}

// GET /api/u/:school_id/conceptos/activos
func (h *ConceptoController) ListActive(c *fiber.Ctx) error {
	schoolID, err := helperAuth.MustSchoolID(c)
	if err != nil {
		return err
	}
	if err := helperAuth.EnsureMemberSchool(c, schoolID); err != nil {
		return err
	}
	list, err := h.Svc.ListActive(c.UserContext(), schoolID)
	if err != nil {
		return writeErr(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToConceptoResponses(list))
}

// GET /api/a/:school_id/conceptos?estado=&q=&page=&per_page=&sort_by=nombre|monto|created_at
func (h *ConceptoController) List(c *fiber.Ctx) error {
	schoolID, err := helperAuth.MustSchoolID(c)
	if err != nil {
		return err
	}
	if err := helperAuth.EnsureStaffSchool(c, schoolID); err != nil {
		return err
	}

	p := helper.ParseFiber(c, "nombre", "asc", helper.AdminOpts)
	order, _ := p.SafeOrderClause(map[string]string{
		"nombre":     "concepto_nombre",
		"monto":      "concepto_monto_sugerido",
		"created_at": "concepto_created_at",
	}, "nombre")

	list, total, err := h.Svc.List(c.UserContext(), schoolID, service.ListFilter{
		Estado: c.Query("estado"),
		Q:      c.Query("q"),
		Order:  order,
		Limit:  p.Limit(),
		Offset: p.Offset(),
	})
	if err != nil {
		return writeErr(c, err)
	}
	return helper.JsonList(c, "ok", dto.ToConceptoResponses(list), helper.BuildMeta(total, p))
}

// POST /api/a/:school_id/conceptos
// PUT  /api/a/:school_id/conceptos/:id
func (h *ConceptoController) Upsert(c *fiber.Ctx) error {
	schoolID, err := helperAuth.MustSchoolID(c)
	if err != nil {
		return err
	}
	if err := helperAuth.EnsureStaffSchool(c, schoolID); err != nil {
		return err
	}

	var in dto.ConceptoUpsertRequest
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid json body")
	}
	if raw := c.Params("id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, http.StatusBadRequest, "invalid id")
		}
		in.ID = &id
	}

	m, created, err := h.Svc.Upsert(c.UserContext(), schoolID, in)
	if err != nil {
		return writeErr(c, err)
	}
	if created {
		return helper.JsonCreated(c, "concepto created", dto.ToConceptoResponse(*m))
	}
	return helper.JsonUpdated(c, "concepto updated", dto.ToConceptoResponse(*m))
}

// DELETE /api/a/:school_id/conceptos/:id (soft: deactivates)
func (h *ConceptoController) Deactivate(c *fiber.Ctx) error {
	schoolID, err := helperAuth.MustSchoolID(c)
	if err != nil {
		return err
	}
	if err := helperAuth.EnsureStaffSchool(c, schoolID); err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid id")
	}

	res, err := h.Svc.Deactivate(c.UserContext(), schoolID, id)
	if err != nil {
		return writeErr(c, err)
	}
	out := dto.DeactivateResponse{
		Concepto: dto.ToConceptoResponse(res.Concepto),
		EnUso:    res.EnUso,
		Entradas: res.Entradas,
	}
	if res.EnUso {
		out.Aviso = "concepto is referenced by existing cronograma entries; they are kept unchanged"
	}
	return helper.JsonUpdated(c, "concepto deactivated", out)
}
