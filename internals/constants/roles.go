package constants

// Per-school roles carried in the access token (school_roles claim).
const (
	RoleAdmin    = "admin"
	RoleFinanzas = "finanzas"
	RolePadre    = "padre"
)

// Global roles (roles_global claim).
const (
	RoleOwner      = "owner"
	RoleSuperAdmin = "superadmin"
)

var (
	// StaffRoles may manage concepts, ledgers and verify comprobantes.
	StaffRoles = []string{RoleAdmin, RoleFinanzas}

	AllSchoolRoles = []string{RoleAdmin, RoleFinanzas, RolePadre}
)

func IsValidSchoolRole(r string) bool {
	for _, x := range AllSchoolRoles {
		if x == r {
			return true
		}
	}
	return false
}
