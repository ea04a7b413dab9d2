package auth

// Role is the closed set of user roles. Authorization decisions switch
// on this type rather than raw strings.
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleTenant, RoleLandlord, RoleAdmin:
		return true
	}
	return false
}

// CanManageCredits reports whether the role may award or adjust
// ownership credits. Redemption is open to every authenticated role.
func (r Role) CanManageCredits() bool {
	switch r {
	case RoleLandlord, RoleAdmin:
		return true
	case RoleTenant:
		return false
	}
	return false
}

// CanManageProperties reports whether the role may create, update or
// delete properties, units and tenant records.
func (r Role) CanManageProperties() bool {
	return r.CanManageCredits()
}

// Context is the caller identity attached to every operation. It is
// produced once per request by the JWT middleware and never persisted.
type Context struct {
	UserID uint
	OrgID  string
	Role   Role
}
