package repository

import (
	"context"

	"tella/app/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// Delete removes the user row. Dependent identities, sessions, and the
	// profile are removed by the schema's ON DELETE CASCADE.
	Delete(ctx context.Context, id string) error
}
