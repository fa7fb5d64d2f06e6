package domain

import "time"

type UserID string

// Role is the closed set of portal roles. The zero value RoleUnresolved only
// ever appears in a live Session while resolution is in progress; it is never
// persisted.
type Role string

const (
	RoleUnresolved  Role = ""
	RoleSuperadmin  Role = "superadmin"
	RoleAdmin       Role = "admin"
	RoleBeneficiary Role = "beneficiary"
)

// ParseRole maps a stored role string onto the enum. Unknown values are
// rejected rather than defaulted so a corrupted record cannot grant access.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSuperadmin, RoleAdmin, RoleBeneficiary:
		return Role(s), nil
	default:
		return RoleUnresolved, ErrUnknownRole
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleAdmin, RoleBeneficiary:
		return true
	default:
		return false
	}
}

// RoleRecord is the persisted role assignment, keyed uniquely by UserID.
// Created on first resolution, updated on every role change, never deleted.
type RoleRecord struct {
	UserID    UserID    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Role      Role      `json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}
