package domain

// Role represents the caller's role in the system
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// ParseRole возвращает роль по строке; пустая строка означает customer
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case "", RoleCustomer:
		return RoleCustomer, true
	case RoleStaff:
		return RoleStaff, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// Session идентичность вызывающего, передается в каждую операцию явно
type Session struct {
	UserID string
	Role   Role
}

// IsStaff returns true for staff and admin sessions
func (s Session) IsStaff() bool {
	return s.Role == RoleStaff || s.Role == RoleAdmin
}

// IsAdmin returns true for admin sessions
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// IsAnonymous returns true if there is no authenticated user
func (s Session) IsAnonymous() bool {
	return s.UserID == ""
}
