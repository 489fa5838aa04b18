package repository

import (
	"context"
	"errors"

	"tella/app/internal/profile/domain"
)

// ErrUsernameTaken is returned when an insert or update collides with an
// existing username. Classified from the database's unique-violation code so
// callers never have to match on message text.
var ErrUsernameTaken = errors.New("username already taken")

// Repository defines persistence for profiles.
type Repository interface {
	Insert(ctx context.Context, p *domain.Profile) error
	// GetByID returns the profile for id, or nil if no record exists.
	// It returns an error only for database failures, not for missing rows.
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	// Update applies the non-nil fields of u and bumps updated_at.
	Update(ctx context.Context, id string, u domain.Update) error
	// UsernameExists reports whether any profile holds the given username.
	UsernameExists(ctx context.Context, username string) (bool, error)
}
