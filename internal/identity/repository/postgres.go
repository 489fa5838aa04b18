package repository

import (
	"context"
	"database/sql"
	"errors"

	"tella/app/internal/identity/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an identity repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByUserAndProvider returns the identity for the given user and provider, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByUserAndProvider(ctx context.Context, userID string, provider domain.IdentityProvider) (*domain.Identity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, provider, provider_id, password_hash, created_at
		 FROM identities WHERE user_id = $1 AND provider = $2`,
		userID, string(provider))
	var i domain.Identity
	var p string
	err := row.Scan(&i.ID, &i.UserID, &p, &i.ProviderID, &i.PasswordHash, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	i.Provider = domain.IdentityProvider(p)
	return &i, nil
}

// Create persists the identity. The identity must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, i *domain.Identity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO identities (id, user_id, provider, provider_id, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		i.ID, i.UserID, string(i.Provider), i.ProviderID, i.PasswordHash, i.CreatedAt)
	return err
}

// UpdatePasswordHash replaces the stored password hash for the user's identity with the given provider.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, userID string, provider domain.IdentityProvider, hash string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE identities SET password_hash = $1 WHERE user_id = $2 AND provider = $3",
		hash, userID, string(provider))
	return err
}
