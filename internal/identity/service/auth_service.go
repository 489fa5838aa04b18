package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"tella/app/internal/audit"
	identitydomain "tella/app/internal/identity/domain"
	"tella/app/internal/mail"
	"tella/app/internal/passreset"
	"tella/app/internal/security"
	sessiondomain "tella/app/internal/session/domain"
	userdomain "tella/app/internal/user/domain"
	"tella/app/internal/validation"
)

// Sentinel errors for the auth service; handlers map them to HTTP statuses.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidRefreshToken    = errors.New("invalid or expired refresh token")
	ErrRefreshTokenReuse      = errors.New("refresh token reuse detected; all sessions revoked")
	ErrInvalidResetToken      = errors.New("invalid or expired reset token")
	ErrUserNotFound           = errors.New("user not found")
)

// AuthResult holds the outcome of Register (identity only) or Login/Refresh (tokens + identity).
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UserID       string
	Email        string
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	Delete(ctx context.Context, id string) error
}

// IdentityRepo is the minimal identity repository needed by the auth service.
type IdentityRepo interface {
	GetByUserAndProvider(ctx context.Context, userID string, provider identitydomain.IdentityProvider) (*identitydomain.Identity, error)
	Create(ctx context.Context, i *identitydomain.Identity) error
	UpdatePasswordHash(ctx context.Context, userID string, provider identitydomain.IdentityProvider, hash string) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Revoke(ctx context.Context, id string) error
	RevokeAllByUser(ctx context.Context, userID string) error
	UpdateRefreshToken(ctx context.Context, sessionID, jti, refreshTokenHash string) error
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
}

// AuthService implements password-only register, login, refresh, logout,
// account deletion, and the password reset flow.
type AuthService struct {
	userRepo     UserRepo
	identityRepo IdentityRepo
	sessionRepo  SessionRepo
	hasher       *security.Hasher
	tokens       *security.TokenProvider
	resetTokens  passreset.Store
	mailer       mail.Sender
	auditor      audit.AuditLogger
	refreshTTL   time.Duration
	resetLink    string
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	userRepo UserRepo,
	identityRepo IdentityRepo,
	sessionRepo SessionRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	resetTokens passreset.Store,
	mailer mail.Sender,
	auditor audit.AuditLogger,
	refreshTTL time.Duration,
	resetLink string,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		identityRepo: identityRepo,
		sessionRepo:  sessionRepo,
		hasher:       hasher,
		tokens:       tokens,
		resetTokens:  resetTokens,
		mailer:       mailer,
		auditor:      auditor,
		refreshTTL:   refreshTTL,
		resetLink:    resetLink,
	}
}

// Register creates a user and local identity with the given email and password.
// Returns AuthResult with UserID and Email only; the caller must Login to get tokens.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	userID := uuid.New().String()
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:        userID,
		Email:     email,
		Status:    userdomain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	identity := &identitydomain.Identity{
		ID:           uuid.New().String(),
		UserID:       userID,
		Provider:     identitydomain.IdentityProviderLocal,
		ProviderID:   email,
		PasswordHash: hashed,
		CreatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.identityRepo.Create(ctx, identity); err != nil {
		return nil, err
	}
	s.auditor.LogEvent(ctx, userID, "register", "identity", "")
	return &AuthResult{UserID: userID, Email: email}, nil
}

// Login authenticates with email/password, creates a session, and returns tokens.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != userdomain.UserStatusActive {
		s.auditor.LogEvent(ctx, "", "login_failure", "session", email)
		return nil, ErrInvalidCredentials
	}
	ident, err := s.identityRepo.GetByUserAndProvider(ctx, user.ID, identitydomain.IdentityProviderLocal)
	if err != nil {
		return nil, err
	}
	if ident == nil || ident.PasswordHash == "" {
		s.auditor.LogEvent(ctx, user.ID, "login_failure", "session", "")
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(ident.PasswordHash, []byte(password)); err != nil {
		s.auditor.LogEvent(ctx, user.ID, "login_failure", "session", "")
		return nil, ErrInvalidCredentials
	}
	res, err := s.createSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.auditor.LogEvent(ctx, user.ID, "login_success", "session", "")
	return res, nil
}

func (s *AuthService) createSession(ctx context.Context, user *userdomain.User) (*AuthResult, error) {
	sessionID := uuid.New().String()
	sub := security.TokenSubject{SessionID: sessionID, UserID: user.ID, Email: user.Email}
	refreshToken, jti, refreshExp, err := s.tokens.IssueRefresh(sub)
	if err != nil {
		return nil, err
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(sub)
	if err != nil {
		return nil, err
	}
	sess := &sessiondomain.Session{
		ID:               sessionID,
		UserID:           user.ID,
		ExpiresAt:        refreshExp,
		RefreshJti:       jti,
		RefreshTokenHash: security.HashRefreshToken(refreshToken),
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp,
		UserID:       user.ID,
		Email:        user.Email,
	}, nil
}

// Refresh validates the refresh token, rotates it, and returns new tokens.
// Presenting a stale jti for a live session is treated as token reuse and
// revokes every session of that user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	sub, jti, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	sess, err := s.sessionRepo.GetByID(ctx, sub.SessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || !sess.Active(time.Now().UTC()) {
		return nil, ErrInvalidRefreshToken
	}
	if sess.RefreshJti != jti {
		_ = s.sessionRepo.RevokeAllByUser(ctx, sub.UserID)
		s.auditor.LogEvent(ctx, sub.UserID, "refresh_reuse", "session", sub.SessionID)
		return nil, ErrRefreshTokenReuse
	}
	if sess.RefreshTokenHash != "" && !security.RefreshTokenHashEqual(refreshToken, sess.RefreshTokenHash) {
		return nil, ErrInvalidRefreshToken
	}
	now := time.Now().UTC()
	_ = s.sessionRepo.UpdateLastSeen(ctx, sub.SessionID, now)
	newRefresh, newJti, _, err := s.tokens.IssueRefresh(sub)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.UpdateRefreshToken(ctx, sub.SessionID, newJti, security.HashRefreshToken(newRefresh)); err != nil {
		return nil, err
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(sub)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    accessExp,
		UserID:       sub.UserID,
		Email:        sub.Email,
	}, nil
}

// Logout revokes the session identified by the refresh token, or by
// sessionID when the refresh token is absent (Bearer-only logout).
// Invalid tokens are a no-op, not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken, sessionID string) error {
	if refreshToken != "" {
		sub, _, err := s.tokens.ValidateRefresh(refreshToken)
		if err != nil {
			return nil
		}
		s.auditor.LogEvent(ctx, sub.UserID, "logout", "session", sub.SessionID)
		return s.sessionRepo.Revoke(ctx, sub.SessionID)
	}
	if sessionID == "" {
		return nil
	}
	s.auditor.LogEvent(ctx, "", "logout", "session", sessionID)
	return s.sessionRepo.Revoke(ctx, sessionID)
}

// DeleteUser removes the user and everything keyed to it. Used to roll back
// a registration whose profile creation failed, so no identity without a
// profile is left behind.
func (s *AuthService) DeleteUser(ctx context.Context, userID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	_ = s.sessionRepo.RevokeAllByUser(ctx, userID)
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}
	s.auditor.LogEvent(ctx, userID, "delete_user", "identity", "")
	return nil
}

// RequestPasswordReset issues a reset token and mails the reset link.
// An unknown email is not an error, so the endpoint cannot be used to probe
// which addresses are registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}
	token, err := s.resetTokens.Issue(ctx, user.ID)
	if err != nil {
		return err
	}
	link := s.resetLink + "?token=" + token
	if err := s.mailer.SendPasswordReset(ctx, user.Email, link); err != nil {
		return err
	}
	s.auditor.LogEvent(ctx, user.ID, "password_reset_requested", "identity", "")
	return nil
}

// ResetPassword redeems a reset token, replaces the password hash, and
// revokes all sessions of the user.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}
	userID, ok := s.resetTokens.Consume(ctx, token)
	if !ok {
		return ErrInvalidResetToken
	}
	hashed, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	if err := s.identityRepo.UpdatePasswordHash(ctx, userID, identitydomain.IdentityProviderLocal, hashed); err != nil {
		return err
	}
	_ = s.sessionRepo.RevokeAllByUser(ctx, userID)
	s.auditor.LogEvent(ctx, userID, "password_reset", "identity", "")
	return nil
}
