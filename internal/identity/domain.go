package identity

import (
	"time"

	"github.com/compass-mel/compass-mel/internal/shared"
)

// User represents a platform account.
//
// Role, PartnerID and CenterID are written only by the role-request approval
// transaction (or by the admin bootstrap seed); nothing else mutates them.
type User struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	Role         shared.Role
	PartnerID    *int64
	CenterID     *int64
	IsActive     bool
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor converts the account row into the value object passed to services.
func (u User) Actor() shared.Actor {
	return shared.Actor{
		UserID:    u.ID,
		Email:     u.Email,
		Role:      u.Role,
		PartnerID: u.PartnerID,
		CenterID:  u.CenterID,
		IsActive:  u.IsActive,
	}
}

// RegisterInput captures a new account registration.
type RegisterInput struct {
	Email    string
	FullName string
	Password string
}
