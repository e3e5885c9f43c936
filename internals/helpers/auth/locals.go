package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Locals keys filled by the AuthJWT middleware.
const (
	LocUserID      = "user_id"      // string
	LocRolesGlobal = "roles_global" // []string
	LocSchoolRoles = "school_roles" // []SchoolRolesEntry
	LocRawToken    = "raw_token"    // string
	LocTokenExp    = "token_exp"    // time.Time
)

type SchoolRolesEntry struct {
	SchoolID uuid.UUID `json:"school_id"`
	Roles    []string  `json:"roles"`
}

// ParseSchoolRoles accepts the decoded JWT claim ([]any of maps) or an
// already typed slice.
func ParseSchoolRoles(v any) []SchoolRolesEntry {
	out := make([]SchoolRolesEntry, 0)
	switch arr := v.(type) {
	case []SchoolRolesEntry:
		return arr
	case []any:
		for _, it := range arr {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			s, _ := m["school_id"].(string)
			id, err := uuid.Parse(strings.TrimSpace(s))
			if err != nil {
				continue
			}
			roles := ReadStringSlice(m["roles"])
			if len(roles) == 0 {
				continue
			}
			out = append(out, SchoolRolesEntry{SchoolID: id, Roles: roles})
		}
	}
	return out
}

// ReadStringSlice converts []string or []any into trimmed, lower-cased strings.
func ReadStringSlice(v any) []string {
	out := make([]string, 0)
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			add(s)
		}
	case []any:
		for _, it := range t {
			if s, ok := it.(string); ok {
				add(s)
			}
		}
	case string:
		add(t)
	}
	return out
}

func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	s, _ := c.Locals(LocUserID).(string)
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "user id missing in token")
	}
	return id, nil
}

func schoolRoles(c *fiber.Ctx) []SchoolRolesEntry {
	return ParseSchoolRoles(c.Locals(LocSchoolRoles))
}

// RolesInSchool returns the caller's roles for schoolID (empty when absent).
func RolesInSchool(c *fiber.Ctx, schoolID uuid.UUID) []string {
	for _, e := range schoolRoles(c) {
		if e.SchoolID == schoolID {
			return e.Roles
		}
	}
	return nil
}
