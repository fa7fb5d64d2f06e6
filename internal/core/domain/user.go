package domain

import "time"

// User is an identity-provider account. Role assignments live in RoleRecord,
// not here; the account carries credentials and profile basics only.
type User struct {
	ID           UserID    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name,omitempty"`
	Barangay     string    `json:"barangay,omitempty"`
	PasswordHash []byte    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}
