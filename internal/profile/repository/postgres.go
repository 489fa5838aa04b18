package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"tella/app/internal/profile/domain"
)

// uniqueViolation is the Postgres SQLSTATE for unique-constraint violations.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a profile repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert persists a new profile. Returns ErrUsernameTaken on a username collision.
func (r *PostgresRepository) Insert(ctx context.Context, p *domain.Profile) error {
	likes, err := likesValue(p.Likes)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, username, birthdate, likes, plan, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, nullString(p.Username), nullString(p.Birthdate), likes, nullString(string(p.Plan)), now, now)
	return classifyWriteError(err)
}

// GetByID returns the profile for id, or nil if no record exists.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, username, birthdate, likes, plan, created_at, updated_at
		 FROM profiles WHERE id = $1`, id)

	var p domain.Profile
	var username, plan sql.NullString
	var birthdate sql.NullTime
	var likes []byte
	err := row.Scan(&p.ID, &username, &birthdate, &likes, &plan, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.Username = username.String
	if birthdate.Valid {
		p.Birthdate = birthdate.Time.Format(time.DateOnly)
	}
	if len(likes) > 0 {
		if err := json.Unmarshal(likes, &p.Likes); err != nil {
			return nil, fmt.Errorf("profile %s: decode likes: %w", id, err)
		}
	}
	p.Plan = domain.Plan(plan.String)
	return &p, nil
}

// Update applies the non-nil fields of u and bumps updated_at.
// Returns ErrUsernameTaken on a username collision.
func (r *PostgresRepository) Update(ctx context.Context, id string, u domain.Update) error {
	set := []string{}
	args := []any{}

	add := func(col string, val any) {
		args = append(args, val)
		set = append(set, col+" = $"+strconv.Itoa(len(args)))
	}

	if u.Username != nil {
		add("username", nullString(*u.Username))
	}
	if u.Birthdate != nil {
		add("birthdate", nullString(*u.Birthdate))
	}
	if u.Likes != nil {
		likes, err := likesValue(*u.Likes)
		if err != nil {
			return err
		}
		add("likes", likes)
	}
	if u.Plan != nil {
		add("plan", nullString(string(*u.Plan)))
	}
	if len(set) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	query := "UPDATE profiles SET "
	for i, s := range set {
		if i > 0 {
			query += ", "
		}
		query += s
	}
	query += " WHERE id = $" + strconv.Itoa(len(args))

	_, err := r.db.ExecContext(ctx, query, args...)
	return classifyWriteError(err)
}

// UsernameExists reports whether any profile holds the given username.
func (r *PostgresRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM profiles WHERE username = $1)", username).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func classifyWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrUsernameTaken, pgErr.ConstraintName)
	}
	return err
}

func likesValue(likes []string) (any, error) {
	if likes == nil {
		return nil, nil
	}
	b, err := json.Marshal(likes)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
