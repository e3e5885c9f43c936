package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"colegio_backend/internals/configs"
	"colegio_backend/internals/features/users/auth/service"
	helper "colegio_backend/internals/helpers"
	helperAuth "colegio_backend/internals/helpers/auth"
)

type AuthController struct {
	Svc *service.Service
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{Svc: &service.Service{
		DB:             db,
		Secret:         configs.JWTSecret,
		AccessTTL:      configs.GetDuration("JWT_ACCESS_TTL"),
		GoogleClientID: configs.GoogleClientID,
	}}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

func writeErr(c *fiber.Ctx, err error) error {
	var fe *helper.FieldErrors
	switch {
	case errors.As(err, &fe):
		return helper.JsonValidationError(c, fe.Fields)
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidGoogleToken):
		return helper.JsonError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrInactive):
		return helper.JsonError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrGoogleDisabled):
		return helper.JsonError(c, http.StatusNotImplemented, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return helper.JsonError(c, http.StatusNotFound, "user not found")
	default:
		return helper.JsonError(c, http.StatusInternalServerError, err.Error())
	}
}

func setTokenCookie(c *fiber.Ctx, token string, exp time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    token,
		Expires:  exp,
		HTTPOnly: true,
		Secure:   configs.IsProduction(),
		SameSite: "Lax",
	})
}

// POST /api/auth/login
func (h *AuthController) Login(c *fiber.Ctx) error {
	var in LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid json body")
	}
	if err := helper.Validate(in); err != nil {
		return writeErr(c, err)
	}
	res, err := h.Svc.Login(c.UserContext(), in.Email, in.Password)
	if err != nil {
		return writeErr(c, err)
	}
	setTokenCookie(c, res.AccessToken, res.ExpiresAt)
	return helper.JsonOK(c, "login ok", res)
}

// POST /api/auth/login-google
func (h *AuthController) LoginGoogle(c *fiber.Ctx) error {
	var in GoogleLoginRequest
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid json body")
	}
	if err := helper.Validate(in); err != nil {
		return writeErr(c, err)
	}
	res, err := h.Svc.LoginGoogle(c.UserContext(), in.IDToken)
	if err != nil {
		return writeErr(c, err)
	}
	setTokenCookie(c, res.AccessToken, res.ExpiresAt)
	return helper.JsonOK(c, "login ok", res)
}

// POST /api/auth/logout (authenticated)
func (h *AuthController) Logout(c *fiber.Ctx) error {
	raw, _ := c.Locals(helperAuth.LocRawToken).(string)
	exp, _ := c.Locals(helperAuth.LocTokenExp).(time.Time)
	if exp.IsZero() {
		exp = time.Now().Add(configs.GetDuration("JWT_ACCESS_TTL"))
	}
	if err := h.Svc.Logout(c.UserContext(), raw, exp); err != nil {
		return writeErr(c, err)
	}
	c.ClearCookie("access_token")
	return helper.JsonOK(c, "logged out", nil)
}

// GET /api/auth/me (authenticated)
func (h *AuthController) Me(c *fiber.Ctx) error {
	uid, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	u, err := h.Svc.Me(c.UserContext(), uid)
	if err != nil {
		return writeErr(c, err)
	}
	roles, err := h.Svc.SchoolRoles(c.UserContext(), uid)
	if err != nil {
		return writeErr(c, err)
	}
	return helper.JsonOK(c, "ok", fiber.Map{"user": u, "school_roles": roles})
}
