package domain

// Company-scoped roles a membership may carry.
const (
	RoleCompanyAdmin = "company_admin"
	RoleHRUser       = "hr_user"
)

// GlobalRoleKey is the reserved key inside Claims.Roles for platform-wide
// elevation. It is never derived from memberships and must survive every
// claims rebuild untouched.
const GlobalRoleKey = "globalRole"

// GlobalRoleSuperAdmin marks a platform operator.
const GlobalRoleSuperAdmin = "superAdmin"

// ValidRole reports whether role is an accepted company-scoped role.
func ValidRole(role string) bool {
	switch role {
	case RoleCompanyAdmin, RoleHRUser:
		return true
	}
	return false
}

// Claims is the authorization payload mirrored into the identity
// provider's app_metadata and embedded in every session token it signs.
// Roles maps companyID -> role, plus the optional GlobalRoleKey entry.
type Claims struct {
	Roles map[string]string `json:"roles"`
}

// GlobalRole returns the platform-wide role, if any.
func (c Claims) GlobalRole() string {
	if c.Roles == nil {
		return ""
	}
	return c.Roles[GlobalRoleKey]
}

// IsSuperAdmin reports platform-operator elevation.
func (c Claims) IsSuperAdmin() bool {
	return c.GlobalRole() == GlobalRoleSuperAdmin
}

// RoleFor returns the caller's role in the given company, if any.
func (c Claims) RoleFor(companyID string) string {
	if c.Roles == nil {
		return ""
	}
	return c.Roles[companyID]
}
