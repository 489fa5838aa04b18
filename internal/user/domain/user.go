package domain

import (
	"errors"
	"time"
)

// User is the account record behind an authenticated identity. Product
// details live on the profile; this row exists for auth bookkeeping.
type User struct {
	ID        string
	Email     string
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// Validate checks the user before persistence and defaults the status.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}
