package model

import (
	"encoding/json"
	"time"
)

// Role names, ordered from lowest to highest privilege. Authorization is
// hierarchical: a higher role is accepted anywhere a lower role is.
const (
	RoleAssessor    = "assessor"
	RoleCoordenador = "coordenador"
	RoleAdmin       = "admin"
)

var roleLevels = map[string]int{
	RoleAssessor:    1,
	RoleCoordenador: 2,
	RoleAdmin:       3,
}

// RoleLevel returns the hierarchy level for a role name. Unknown or empty
// roles map to the assessor level, so a missing role never grants more
// privilege than the lowest one.
func RoleLevel(role string) int {
	if level, ok := roleLevels[role]; ok {
		return level
	}
	return roleLevels[RoleAssessor]
}

// ValidRole reports whether name is one of the known role names.
func ValidRole(name string) bool {
	_, ok := roleLevels[name]
	return ok
}

// User is a human account in a campaign office. The role drives hierarchical
// authorization; the optional permissions JSON stores per-feature overrides.
type User struct {
	ID              int64     `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Email           string    `json:"email" db:"email"`
	PasswordHash    string    `json:"-" db:"password_hash"`
	Role            string    `json:"role" db:"role"`
	PermissionsJSON *string   `json:"-" db:"permissions_json"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// EffectivePermissions returns the user's stored permission set, or the
// role-derived defaults when the user has no explicit record (or the stored
// JSON is unreadable). The result is always a complete set.
func (u *User) EffectivePermissions() Permissions {
	if u.PermissionsJSON == nil || *u.PermissionsJSON == "" {
		return DefaultPermissions(u.Role)
	}
	var p Permissions
	if err := json.Unmarshal([]byte(*u.PermissionsJSON), &p); err != nil {
		return DefaultPermissions(u.Role)
	}
	return p
}
