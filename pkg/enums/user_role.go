package enums

// UserRole identifies the privilege level of a platform user.
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleStaff UserRole = "staff"
)

// IsValid reports whether the role is one of the supported values.
func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleAdmin, UserRoleStaff:
		return true
	default:
		return false
	}
}

func (r UserRole) String() string {
	return string(r)
}
