// Package profile is the boundary to the persisted user profile records.
// The access gate reads roles from here; the role-change action writes them.
package profile

import (
	"context"
	"errors"
)

const (
	RoleClient   = "client"
	RoleAdmin    = "admin"
	RoleDesigner = "designer"
	RoleManager  = "manager"
)

// ErrNotFound means the profile row for a user id does not exist. Callers
// treat this as an incomplete account, not as an infrastructure failure.
var ErrNotFound = errors.New("profile not found")

type Store interface {
	Role(ctx context.Context, userID string) (string, error)
	SetRole(ctx context.Context, userID, role string) error
}

// ValidRole reports whether role is one of the known role values.
func ValidRole(role string) bool {
	switch role {
	case RoleClient, RoleAdmin, RoleDesigner, RoleManager:
		return true
	}
	return false
}
