package auth

import (
	"time"

	"github.com/fleetline-erp/fleetline-erp/internal/shared"
)

// User is a tenant-scoped account able to sign in.
type User struct {
	ID           int64
	TenantID     int64
	Email        string
	Name         string
	PasswordHash string
	Role         shared.Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity converts the user row into the session identity.
func (u *User) Identity() shared.Identity {
	return shared.Identity{TenantID: u.TenantID, UserID: u.ID, Role: u.Role}
}
