package domain

import "strings"

// Role is the access label the remote API attaches to an application user.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleUnitManager Role = "UNIT_MANAGER"
	RoleUser        Role = "USER"
)

// Roles lists the selectable roles in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleUnitManager, RoleUser}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUnitManager, RoleUser:
		return true
	}
	return false
}

// Label is the human-friendly name shown in role pickers.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleUnitManager:
		return "Unit Manager"
	case RoleUser:
		return "User"
	}
	return string(r)
}

// UserRecord is the console's cached copy of an application user. The remote
// API owns the record; the console only displays it.
type UserRecord struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	UniqueID string `json:"uniqueId"`
}

// Matches reports whether term is a case-insensitive substring of the
// username, email or uniqueId.
func (u UserRecord) Matches(term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(u.Username), term) ||
		strings.Contains(strings.ToLower(u.Email), term) ||
		strings.Contains(strings.ToLower(u.UniqueID), term)
}

// NewUser is the payload submitted by the create-user form.
type NewUser struct {
	Username string `json:"username" form:"username" validate:"required"`
	Email    string `json:"email"    form:"email"    validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
	Role     Role   `json:"role"     form:"role"     validate:"required"`
}
