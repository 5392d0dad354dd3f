package models

import "github.com/google/uuid"

type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

// Actor is an authenticated caller as carried in the access token.
type Actor struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  Role      `json:"role"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
