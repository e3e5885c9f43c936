package controller

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"colegio_backend/internals/features/finance/comprobantes/dto"
	"colegio_backend/internals/features/finance/comprobantes/model"
	"colegio_backend/internals/features/finance/comprobantes/service"
	cronoService "colegio_backend/internals/features/finance/cronogramas/service"
	studentService "colegio_backend/internals/features/students/service"
	helper "colegio_backend/internals/helpers"
	helperAuth "colegio_backend/internals/helpers/auth"
	"colegio_backend/internals/helpers/dbtime"
)

type ComprobanteController struct {
	DB  *gorm.DB
	Svc *service.Service
	Loc *time.Location
}

func NewComprobanteController(db *gorm.DB, loc *time.Location, notifier service.Notifier) *ComprobanteController {
	return &ComprobanteController{
		DB:  db,
		Svc: service.New(db, cronoService.New(db, loc), notifier),
		Loc: loc,
	}
}

func writeErr(c *fiber.Ctx, err error) error {
	var fe *helper.FieldErrors
	switch {
	case errors.As(err, &fe):
		return helper.JsonValidationError(c, fe.Fields)
	case errors.Is(err, service.ErrNotFound), errors.Is(err, cronoService.ErrNotFound):
		return helper.JsonError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNoAutorizado):
		return helper.JsonError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrYaResuelto),
		errors.Is(err, cronoService.ErrYaPagado),
		errors.Is(err, cronoService.ErrPagoDuplicado):
		return helper.JsonError(c, http.StatusConflict, err.Error())
	case errors.Is(err, cronoService.ErrSobrepago):
		return helper.JsonError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		return helper.JsonError(c, http.StatusInternalServerError, err.Error())
	}
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// POST /api/u/:school_id/comprobantes
func (h *ComprobanteController) Submit(c *fiber.Ctx) error {
	schoolID, err := helperAuth.MustSchoolID(c)
	if err != nil {
		return err
	}
	if err := helperAuth.EnsureMemberSchool(c, schoolID); err != nil {
		return err
	}
	actor, err := helperAuth.ActorFor(c, schoolID)
	if err != nil {
		return err
	}

	var in dto.SubmitRequest
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid json body")
	}
	in.Normalize()
	if err := helper.Validate(in); err != nil {
		return writeErr(c, err)
	}
	var fecha *time.Time
	if in.FechaOperacion != nil {
		d, err := dbtime.ParseDate(*in.FechaOperacion, h.Loc)
		if err != nil {
			return helper.JsonValidationError(c, map[string][]string{"fecha_operacion": {err.Error()}})
		}
		fecha = &d
	}

	m, err := h.Svc.Submit(c.UserContext(), schoolID, actor, service.SubmitInput{
		CronogramaID:    in.CronogramaID,
		Monto:           in.Monto,
		Metodo:          model.MetodoPago(in.Metodo),
		EvidenciaURL:    in.EvidenciaURL,
		Banco:           in.Banco,
		NumeroOperacion: in.NumeroOperacion,
		FechaOperacion:  fecha,
	})
	if err != nil {
		return writeErr(c, err)
	}
	return helper.JsonCreated(c, "comprobante submitted", dto.ToComprobanteResponse(*m))
}

// GET /api/u/:school_id/comprobantes
// Guardians see comprobantes of their children plus the ones they sent.
func (h *ComprobanteController) ListMine(c *fiber.Ctx) error {
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

	p := helper.ParseFiber(c, "created_at", "desc", helper.DefaultOpts)
	f := service.ListFilter{
		Estado: strings.ToUpper(strings.TrimSpace(c.Query("estado"))),
		Limit:  p.Limit(),
		Offset: p.Offset(),
	}
	ids, err := studentService.StudentIDsForGuardian(c.UserContext(), h.DB, schoolID, userID)
	if err != nil {
		return writeErr(c, err)
	}
	if len(ids) > 0 {
		f.StudentIDs = ids
	} else {
		f.EnviadoPor = &userID
	}

	list, total, err := h.Svc.List(c.UserContext(), schoolID, f)
	if err != nil {
		return writeErr(c, err)
	}
	return helper.JsonList(c, "ok", dto.ToComprobanteResponses(list), helper.BuildMeta(total, p))
}

// GET /api/a/:school_id/comprobantes?estado=&cronograma_id=
func (h *ComprobanteController) List(c *fiber.Ctx) error {
	schoolID, err := helperAuth.MustSchoolID(c)
	if err != nil {
		return err
	}
	if err := helperAuth.EnsureStaffSchool(c, schoolID); err != nil {
		return err
	}

	p := helper.ParseFiber(c, "created_at", "desc", helper.AdminOpts)
	f := service.ListFilter{
		Estado: strings.ToUpper(strings.TrimSpace(c.Query("estado"))),
		Limit:  p.Limit(),
		Offset: p.Offset(),
	}
	if raw := strings.TrimSpace(c.Query("cronograma_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, http.StatusBadRequest, "invalid cronograma_id")
		}
		f.CronogramaID = &id
	}

	list, total, err := h.Svc.List(c.UserContext(), schoolID, f)
	if err != nil {
		return writeErr(c, err)
	}
	return helper.JsonList(c, "ok", dto.ToComprobanteResponses(list), helper.BuildMeta(total, p))
}

// GET /api/a/:school_id/comprobantes/:id
func (h *ComprobanteController) Get(c *fiber.Ctx) error {
	schoolID, err := helperAuth.MustSchoolID(c)
	if err != nil {
		return err
	}
	if err := helperAuth.EnsureStaffSchool(c, schoolID); err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	m, err := h.Svc.Get(c.UserContext(), schoolID, id)
	if err != nil {
		return writeErr(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToComprobanteResponse(*m))
}

// POST /api/a/:school_id/comprobantes/:id/aprobar
func (h *ComprobanteController) Approve(c *fiber.Ctx) error {
	schoolID, err := helperAuth.MustSchoolID(c)
	if err != nil {
		return err
	}
	if err := helperAuth.EnsureStaffSchool(c, schoolID); err != nil {
		return err
	}
	actor, err := helperAuth.ActorFor(c, schoolID)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	m, err := h.Svc.Approve(c.UserContext(), schoolID, actor, id)
	if err != nil {
		return writeErr(c, err)
	}
	return helper.JsonUpdated(c, "comprobante approved", dto.ToComprobanteResponse(*m))
}

// POST /api/a/:school_id/comprobantes/:id/rechazar
func (h *ComprobanteController) Reject(c *fiber.Ctx) error {
	schoolID, err := helperAuth.MustSchoolID(c)
	if err != nil {
		return err
	}
	if err := helperAuth.EnsureStaffSchool(c, schoolID); err != nil {
		return err
	}
	actor, err := helperAuth.ActorFor(c, schoolID)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var in dto.RejectRequest
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid json body")
	}
	in.Motivo = strings.TrimSpace(in.Motivo)
	if err := helper.Validate(in); err != nil {
		return writeErr(c, err)
	}

	m, err := h.Svc.Reject(c.UserContext(), schoolID, actor, id, in.Motivo)
	if err != nil {
		return writeErr(c, err)
	}
	return helper.JsonUpdated(c, "comprobante rejected", dto.ToComprobanteResponse(*m))
}
