package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"colegio_backend/internals/constants"
)

// Actor is the authenticated caller as seen by the services.
type Actor struct {
	UserID  uuid.UUID
	IsStaff bool
}

// System is used for transitions triggered by the payment gateway.
var System = Actor{UserID: uuid.Nil, IsStaff: true}

// MustSchoolID reads :school_id from the path.
func MustSchoolID(c *fiber.Ctx) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Params("school_id"))
	if raw == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "school_id is required in path")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid school_id")
	}
	return id, nil
}

func isPrivileged(c *fiber.Ctx) bool {
	for _, r := range ReadStringSlice(c.Locals(LocRolesGlobal)) {
		if r == constants.RoleOwner || r == constants.RoleSuperAdmin {
			return true
		}
	}
	return false
}

func hasAnyRole(roles []string, wanted ...string) bool {
	for _, r := range roles {
		for _, w := range wanted {
			if r == w {
				return true
			}
		}
	}
	return false
}

// IsStaffSchool: admin/finanzas in schoolID, or a global owner.
func IsStaffSchool(c *fiber.Ctx, schoolID uuid.UUID) bool {
	if isPrivileged(c) {
		return true
	}
	return hasAnyRole(RolesInSchool(c, schoolID), constants.StaffRoles...)
}

func EnsureStaffSchool(c *fiber.Ctx, schoolID uuid.UUID) error {
	if schoolID == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "school_id is required")
	}
	if IsStaffSchool(c, schoolID) {
		return nil
	}
	if len(RolesInSchool(c, schoolID)) == 0 {
		return fiber.NewError(fiber.StatusForbidden, "school not present in your token")
	}
	return fiber.NewError(fiber.StatusForbidden, "only admin or finanzas may access this resource")
}

// EnsureMemberSchool: any role in schoolID.
func EnsureMemberSchool(c *fiber.Ctx, schoolID uuid.UUID) error {
	if schoolID == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "school_id is required")
	}
	if isPrivileged(c) || len(RolesInSchool(c, schoolID)) > 0 {
		return nil
	}
	return fiber.NewError(fiber.StatusForbidden, "school not present in your token")
}

// ActorFor builds the Actor of the current request within schoolID.
func ActorFor(c *fiber.Ctx, schoolID uuid.UUID) (Actor, error) {
	uid, err := GetUserID(c)
	if err != nil {
		return Actor{}, err
	}
	return Actor{UserID: uid, IsStaff: IsStaffSchool(c, schoolID)}, nil
}
