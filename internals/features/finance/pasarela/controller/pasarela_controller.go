package controller

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"colegio_backend/internals/configs"
	compService "colegio_backend/internals/features/finance/comprobantes/service"
	cronoService "colegio_backend/internals/features/finance/cronogramas/service"
	"colegio_backend/internals/features/finance/pasarela/service"
	helper "colegio_backend/internals/helpers"
	helperAuth "colegio_backend/internals/helpers/auth"
)

type PasarelaController struct {
	Svc *service.Service
}

// NewPasarelaController wires the gateway from MIDTRANS_* settings.
func NewPasarelaController(db *gorm.DB, loc *time.Location, notifier compService.Notifier) *PasarelaController {
	serverKey := configs.GetEnv("MIDTRANS_SERVER_KEY")
	ledger := cronoService.New(db, loc)
	return &PasarelaController{Svc: service.New(
		db,
		ledger,
		compService.New(db, ledger, notifier),
		service.InitMidtrans(serverKey, configs.GetBool("MIDTRANS_USE_PROD")),
		serverKey,
		configs.GetEnv("MIDTRANS_CURRENCY", "IDR"),
	)}
}

func writeErr(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNoConfigurada):
		return helper.JsonError(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, service.ErrMonedaNoSoportada), errors.Is(err, service.ErrMontoNoEntero),
		errors.Is(err, cronoService.ErrSobrepago):
		return helper.JsonError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrFirmaInvalida):
		return helper.JsonError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrPayloadInvalido):
		return helper.JsonError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPasarela):
		return helper.JsonError(c, http.StatusBadGateway, err.Error())
	case errors.Is(err, cronoService.ErrNotFound):
		return helper.JsonError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, compService.ErrNoAutorizado):
		return helper.JsonError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, cronoService.ErrYaPagado):
		return helper.JsonError(c, http.StatusConflict, err.Error())
	default:
		return helper.JsonError(c, http.StatusInternalServerError, err.Error())
	}
}

// POST /api/u/:school_id/cronogramas/:id/checkout
func (h *PasarelaController) Checkout(c *fiber.Ctx) error {
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
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid id")
	}

	res, err := h.Svc.StartCheckout(c.UserContext(), schoolID, actor, id)
	if err != nil {
		return writeErr(c, err)
	}
	return helper.JsonCreated(c, "checkout started", res)
}

// POST /api/public/pasarela/midtrans/notificacion
func (h *PasarelaController) Notification(c *fiber.Ctx) error {
	res, err := h.Svc.HandleNotification(c.UserContext(), c.Body())
	if err != nil {
		return writeErr(c, err)
	}
	return helper.JsonOK(c, "ok", res)
}
