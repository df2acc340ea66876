package directory

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("actor not found")

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Actor is a resolved identity with its role claim.
type Actor struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Position string `json:"position" yaml:"position"`
	// Position level, 1 is the most senior.
	Level int  `json:"level" yaml:"level"`
	Role  Role `json:"role" yaml:"role"`
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

type Directory interface {
	// Resolve returns ErrNotFound for unknown or inactive identities.
	Resolve(ctx context.Context, id string) (Actor, error)
}
