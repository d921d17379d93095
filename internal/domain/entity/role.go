package entity

import "github.com/google/uuid"

// Role names as issued in access token claims
const (
	RoleAdmin   = "admin"
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

// ActingUser is the authenticated caller resolved from the bearer token.
type ActingUser struct {
	ID   uuid.UUID
	Role string
}

func (u ActingUser) IsPatient() bool {
	return u.Role == RolePatient
}

func (u ActingUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}
