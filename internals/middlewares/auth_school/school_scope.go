package middleware

import (
	"github.com/gofiber/fiber/v2"

	helperAuth "colegio_backend/internals/helpers/auth"
)

// RequireSchoolMember guards /api/u/:school_id: any role in the path school.
func RequireSchoolMember() fiber.Handler {
	return func(c *fiber.Ctx) error {
		schoolID, err := helperAuth.MustSchoolID(c)
		if err != nil {
			return err
		}
		if err := helperAuth.EnsureMemberSchool(c, schoolID); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireSchoolStaff guards /api/a/:school_id: admin or finanzas.
func RequireSchoolStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		schoolID, err := helperAuth.MustSchoolID(c)
		if err != nil {
			return err
		}
		if err := helperAuth.EnsureStaffSchool(c, schoolID); err != nil {
			return err
		}
		return c.Next()
	}
}
