package models

import "strings"

// NullIdentity is the all-zero address treated as "no principal".
const NullIdentity = "0x0000000000000000000000000000000000000000"

// Role is the single ledger role an identity may hold at a time.
type Role string

const (
	RoleNone            Role = "NONE"
	RoleStudent         Role = "STUDENT"
	RoleTeacher         Role = "TEACHER"
	RoleDepartmentHead  Role = "DEPARTMENT_HEAD"
	RoleGeneralDirector Role = "GENERAL_DIRECTOR"
)

// Valid reports whether r is one of the declared roles, NONE included.
func (r Role) Valid() bool {
	switch r {
	case RoleNone, RoleStudent, RoleTeacher, RoleDepartmentHead, RoleGeneralDirector:
		return true
	}
	return false
}

// Staff reports whether the role carries read access to every student's records.
func (r Role) Staff() bool {
	switch r {
	case RoleTeacher, RoleDepartmentHead, RoleGeneralDirector:
		return true
	}
	return false
}

// ParseRole normalises user input into a Role.
func ParseRole(raw string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(raw)))
}

// IsNullIdentity reports whether id refers to no principal.
func IsNullIdentity(id string) bool {
	id = strings.TrimSpace(id)
	return id == "" || strings.EqualFold(id, NullIdentity)
}

// RoleAssignment is the externally visible role map entry.
type RoleAssignment struct {
	Identity string `json:"identity"`
	Role     Role   `json:"role"`
}

// AssignRoleRequest is the payload accepted when assigning a role.
type AssignRoleRequest struct {
	Identity string `json:"identity" binding:"required"`
	Role     string `json:"role" binding:"required"`
}
