package service

import (
	"context"
	"errors"
	"strings"

	"tella/app/internal/audit"
	"tella/app/internal/profile/domain"
	"tella/app/internal/profile/repository"
	"tella/app/internal/validation"
)

// ErrProfileNotFound is returned when no profile exists for the user.
var ErrProfileNotFound = errors.New("profile not found")

// Service validates and persists profile writes. Onboarding gating (enough
// likes, plan chosen) is the navigation guard's job; writes here are
// permissive so a user can change a partial selection.
type Service struct {
	repo    repository.Repository
	auditor audit.AuditLogger
}

func NewService(repo repository.Repository, auditor audit.AuditLogger) *Service {
	return &Service{repo: repo, auditor: auditor}
}

// Get returns the user's profile or ErrProfileNotFound.
func (s *Service) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	p, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

// Create inserts the initial profile record during registration. Username
// and birthdate are validated here; the unique username constraint surfaces
// as repository.ErrUsernameTaken.
func (s *Service) Create(ctx context.Context, userID, username, birthdate string) error {
	username = strings.TrimSpace(strings.ToLower(username))
	if err := validation.ValidateUsername(username); err != nil {
		return err
	}
	if err := validation.ValidateBirthdate(birthdate); err != nil {
		return err
	}
	p := &domain.Profile{ID: userID, Username: username, Birthdate: birthdate}
	if err := s.repo.Insert(ctx, p); err != nil {
		return err
	}
	s.auditor.LogEvent(ctx, userID, "profile_created", "profile", username)
	return nil
}

// SetUsername changes the username.
func (s *Service) SetUsername(ctx context.Context, userID, username string) error {
	username = strings.TrimSpace(strings.ToLower(username))
	if err := validation.ValidateUsername(username); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, userID, domain.Update{Username: &username}); err != nil {
		return err
	}
	s.auditor.LogEvent(ctx, userID, "username_changed", "profile", username)
	return nil
}

// SetLikes replaces the interest tags. Any count is accepted; the guard
// decides whether the selection completes onboarding.
func (s *Service) SetLikes(ctx context.Context, userID string, tags []string) error {
	likes := append([]string(nil), tags...)
	if err := s.repo.Update(ctx, userID, domain.Update{Likes: &likes}); err != nil {
		return err
	}
	s.auditor.LogEvent(ctx, userID, "likes_updated", "profile", "")
	return nil
}

// SetPlan records the chosen plan.
func (s *Service) SetPlan(ctx context.Context, userID string, plan string) error {
	parsed, err := domain.ParsePlan(plan)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, userID, domain.Update{Plan: &parsed}); err != nil {
		return err
	}
	s.auditor.LogEvent(ctx, userID, "plan_updated", "profile", plan)
	return nil
}

// UsernameAvailable reports whether the username passes format rules and is
// not taken.
func (s *Service) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if err := validation.ValidateUsername(username); err != nil {
		return false, err
	}
	taken, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return false, err
	}
	return !taken, nil
}
