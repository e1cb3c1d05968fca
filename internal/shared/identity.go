package shared

// Role enumerates the fixed roles recognised across the platform.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleManager    Role = "MANAGER"
	RoleDriver     Role = "DRIVER"
)

// IsValid checks the role against the known set.
func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleManager, RoleDriver:
		return true
	default:
		return false
	}
}

// Identity is the authenticated caller, re-derived from the server-side
// session on every request. Handlers must never trust a client-asserted role.
type Identity struct {
	TenantID int64
	UserID   int64
	Role     Role
}

// Valid reports whether the identity carries a usable tenant and user.
func (id Identity) Valid() bool {
	return id.TenantID > 0 && id.UserID > 0 && id.Role.IsValid()
}
