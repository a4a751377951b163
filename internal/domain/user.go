// Package domain contains the core data types for the BerAuto application.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (repo, service, auth, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization level of a registered user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// User is a registered identity. Role is never self-escalated: registration
// always produces RoleUser and only an admin may change it afterwards.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Address      string    `json:"address,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
