package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"colegio_backend/internals/features/finance/cronogramas/dto"
	"colegio_backend/internals/features/finance/cronogramas/service"
	studentService "colegio_backend/internals/features/students/service"
	helper "colegio_backend/internals/helpers"
	helperAuth "colegio_backend/internals/helpers/auth"
	"colegio_backend/internals/helpers/dbtime"
)

type CronogramaController struct {
	DB  *gorm.DB
	Svc *service.Service
}

func NewCronogramaController(db *gorm.DB, loc *time.Location) *CronogramaController {
	return &CronogramaController{DB: db, Svc: service.New(db, loc)}
}

func writeErr(c *fiber.Ctx, err error) error {
	var fe *helper.FieldErrors
	switch {
	case errors.As(err, &fe):
		return helper.JsonValidationError(c, fe.Fields)
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrConceptoNotFound):
		return helper.JsonError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConceptoInactivo),
		errors.Is(err, service.ErrSobrepago),
		errors.Is(err, service.ErrAjusteInvalido):
		return helper.JsonError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrYaPagado),
		errors.Is(err, service.ErrPagoDuplicado),
		errors.Is(err, service.ErrTieneMovimientos),
		errors.Is(err, service.ErrEntradaDuplicada):
		return helper.JsonError(c, http.StatusConflict, err.Error())
	default:
		return helper.JsonError(c, http.StatusInternalServerError, err.Error())
	}
}

func staffScope(c *fiber.Ctx) (uuid.UUID, error) {
	schoolID, err := helperAuth.MustSchoolID(c)
	if err != nil {
		return uuid.Nil, err
	}
	if err := helperAuth.EnsureStaffSchool(c, schoolID); err != nil {
		return uuid.Nil, err
	}
	return schoolID, nil
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// POST /api/a/:school_id/cronogramas/generar
func (h *CronogramaController) Generate(c *fiber.Ctx) error {
	schoolID, err := staffScope(c)
	if err != nil {
		return err
	}
	var in dto.GenerateRequest
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid json body")
	}
	if err := helper.Validate(in); err != nil {
		return writeErr(c, err)
	}
	venc, err := dbtime.ParseDate(in.FechaVencimiento, h.Svc.Loc)
	if err != nil {
		return helper.JsonValidationError(c, map[string][]string{"fecha_vencimiento": {err.Error()}})
	}

	res, err := h.Svc.GenerateForCohort(c.UserContext(), schoolID, service.GenerateInput{
		ConceptoID:       in.ConceptoID,
		Monto:            in.Monto,
		FechaVencimiento: venc,
		AnioAcademico:    in.AnioAcademico,
		SectionID:        in.SectionID,
	})
	if err != nil {
		return writeErr(c, err)
	}
	return helper.JsonCreated(c, "cronograma generated", dto.GenerateResponse{
		Creados:  res.Creados,
		Omitidos: res.Omitidos,
	})
}

// POST /api/a/:school_id/cronogramas/mora/recalcular
func (h *CronogramaController) Accrue(c *fiber.Ctx) error {
	schoolID, err := staffScope(c)
	if err != nil {
		return err
	}
	var in dto.AccrueRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return helper.JsonError(c, http.StatusBadRequest, "invalid json body")
		}
	}
	asOf := h.Svc.Today()
	if strings.TrimSpace(in.AsOf) != "" {
		if asOf, err = dbtime.ParseDate(in.AsOf, h.Svc.Loc); err != nil {
			return helper.JsonValidationError(c, map[string][]string{"as_of": {err.Error()}})
		}
	}

	res, err := h.Svc.AccrueLateFees(c.UserContext(), &schoolID, asOf)
	if err != nil {
		return writeErr(c, err)
	}
	return helper.JsonOK(c, "late fees recalculated", dto.AccrueResponse{
		AsOf:         dbtime.Format(res.AsOf),
		Revisadas:    res.Revisadas,
		Actualizadas: res.Actualizadas,
	})
}

// GET /api/a/:school_id/cronogramas?student_id=&concepto_id=&estado=&anio=
func (h *CronogramaController) List(c *fiber.Ctx) error {
	schoolID, err := staffScope(c)
	if err != nil {
		return err
	}
	f, err := h.parseFilter(c)
	if err != nil {
		return err
	}
	if raw := strings.TrimSpace(c.Query("student_id")); raw != "" {
		sid, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, http.StatusBadRequest, "invalid student_id")
		}
		f.StudentIDs = []uuid.UUID{sid}
	}
	return h.respondList(c, schoolID, f)
}

// GET /api/u/:school_id/mis-cronogramas (ledger of the caller's children)
func (h *CronogramaController) ListMine(c *fiber.Ctx) error {
	schoolID, err := helperAuth.MustSchoolID(c)
	if err != nil {
		return err
	}
	if err := helperAuth.EnsureMemberSchool(c, schoolID); err != nil {
		return err
	}
	userID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	ids, err := studentService.StudentIDsForGuardian(c.UserContext(), h.DB, schoolID, userID)
	if err != nil {
		return writeErr(c, err)
	}
	if len(ids) == 0 {
		return helper.JsonList(c, "ok", []dto.CronogramaResponse{}, helper.BuildMeta(0, helper.ParseFiber(c, "", "", helper.DefaultOpts)))
	}
	f, err := h.parseFilter(c)
	if err != nil {
		return err
	}
	f.StudentIDs = ids
	return h.respondList(c, schoolID, f)
}

func (h *CronogramaController) parseFilter(c *fiber.Ctx) (service.ListFilter, error) {
	var f service.ListFilter
	if raw := strings.TrimSpace(c.Query("concepto_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "invalid concepto_id")
		}
		f.ConceptoID = &id
	}
	if raw := strings.TrimSpace(c.Query("anio")); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "invalid anio")
		}
		f.Anio = &y
	}
	f.Estado = strings.ToLower(strings.TrimSpace(c.Query("estado")))
	return f, nil
}

func (h *CronogramaController) respondList(c *fiber.Ctx, schoolID uuid.UUID, f service.ListFilter) error {
	p := helper.ParseFiber(c, "vencimiento", "asc", helper.AdminOpts)
	f.Order, _ = p.SafeOrderClause(map[string]string{
		"vencimiento": "cronograma_fecha_vencimiento",
		"monto":       "cronograma_monto",
		"created_at":  "cronograma_created_at",
	}, "vencimiento")
	f.Limit, f.Offset = p.Limit(), p.Offset()

	list, total, err := h.Svc.List(c.UserContext(), schoolID, f)
	if err != nil {
		return writeErr(c, err)
	}
	return helper.JsonList(c, "ok", dto.ToCronogramaResponses(list, h.Svc.Today()), helper.BuildMeta(total, p))
}

// GET /api/a/:school_id/cronogramas/:id
func (h *CronogramaController) Get(c *fiber.Ctx) error {
	schoolID, err := staffScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	e, err := h.Svc.Get(c.UserContext(), schoolID, id)
	if err != nil {
		return writeErr(c, err)
	}
	pagos, err := h.Svc.Pagos(c.UserContext(), id)
	if err != nil {
		return writeErr(c, err)
	}
	return helper.JsonOK(c, "ok", fiber.Map{
		"cronograma": dto.ToCronogramaResponse(*e, h.Svc.Today()),
		"pagos":      dto.ToPagoAplicadoResponses(pagos),
	})
}

// POST /api/a/:school_id/cronogramas/:id/pagos
func (h *CronogramaController) ManualPayment(c *fiber.Ctx) error {
	schoolID, err := staffScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	userID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	var in dto.ManualPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid json body")
	}
	if err := helper.Validate(in); err != nil {
		return writeErr(c, err)
	}

	e, err := h.Svc.RegisterManualPayment(c.UserContext(), schoolID, id, in.Monto, userID)
	if err != nil {
		return writeErr(c, err)
	}
	return helper.JsonCreated(c, "payment applied", dto.ToCronogramaResponse(*e, h.Svc.Today()))
}

// PATCH /api/a/:school_id/cronogramas/:id
func (h *CronogramaController) Adjust(c *fiber.Ctx) error {
	schoolID, err := staffScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in dto.AdjustRequest
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid json body")
	}
	if err := helper.Validate(in); err != nil {
		return writeErr(c, err)
	}
	adj := service.AdjustInput{Monto: in.Monto}
	if in.FechaVencimiento != nil {
		venc, err := dbtime.ParseDate(*in.FechaVencimiento, h.Svc.Loc)
		if err != nil {
			return helper.JsonValidationError(c, map[string][]string{"fecha_vencimiento": {err.Error()}})
		}
		adj.FechaVencimiento = &venc
	}

	e, err := h.Svc.Adjust(c.UserContext(), schoolID, id, adj)
	if err != nil {
		return writeErr(c, err)
	}
	return helper.JsonUpdated(c, "cronograma adjusted", dto.ToCronogramaResponse(*e, h.Svc.Today()))
}

// DELETE /api/a/:school_id/cronogramas/:id
func (h *CronogramaController) Delete(c *fiber.Ctx) error {
	schoolID, err := staffScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.UserContext(), schoolID, id); err != nil {
		return writeErr(c, err)
	}
	return helper.JsonDeleted(c, "cronograma deleted", fiber.Map{"cronograma_id": id})
}
