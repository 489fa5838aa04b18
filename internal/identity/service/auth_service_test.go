package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tella/app/internal/audit"
	identitydomain "tella/app/internal/identity/domain"
	"tella/app/internal/mail"
	"tella/app/internal/passreset"
	"tella/app/internal/security"
	sessiondomain "tella/app/internal/session/domain"
	userdomain "tella/app/internal/user/domain"
	"tella/app/internal/validation"
)

type memUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*userdomain.User
	byEmail map[string]*userdomain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*userdomain.User{}, byEmail: map[string]*userdomain.User{}}
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byEmail[email], nil
}

func (r *memUserRepo) Create(ctx context.Context, u *userdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u
	return nil
}

func (r *memUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		delete(r.byEmail, u.Email)
		delete(r.byID, id)
	}
	return nil
}

type memIdentityRepo struct {
	mu sync.Mutex
	m  map[string]*identitydomain.Identity
}

func newMemIdentityRepo() *memIdentityRepo {
	return &memIdentityRepo{m: map[string]*identitydomain.Identity{}}
}

func (r *memIdentityRepo) GetByUserAndProvider(ctx context.Context, userID string, provider identitydomain.IdentityProvider) (*identitydomain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.m {
		if i.UserID == userID && i.Provider == provider {
			return i, nil
		}
	}
	return nil, nil
}

func (r *memIdentityRepo) Create(ctx context.Context, i *identitydomain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[i.ID] = i
	return nil
}

func (r *memIdentityRepo) UpdatePasswordHash(ctx context.Context, userID string, provider identitydomain.IdentityProvider, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.m {
		if i.UserID == userID && i.Provider == provider {
			i.PasswordHash = hash
			return nil
		}
	}
	return errors.New("identity not found")
}

type memSessionRepo struct {
	mu sync.Mutex
	m  map[string]*sessiondomain.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{m: map[string]*sessiondomain.Session{}}
}

func (r *memSessionRepo) GetByID(ctx context.Context, id string) (*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[id], nil
}

func (r *memSessionRepo) Create(ctx context.Context, s *sessiondomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s2 := *s
	r.m[s.ID] = &s2
	return nil
}

func (r *memSessionRepo) Revoke(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok {
		t := time.Now()
		s.RevokedAt = &t
	}
	return nil
}

func (r *memSessionRepo) RevokeAllByUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := time.Now()
	for _, s := range r.m {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &t
		}
	}
	return nil
}

func (r *memSessionRepo) UpdateRefreshToken(ctx context.Context, sessionID, jti, refreshTokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[sessionID]; ok {
		s.RefreshJti = jti
		s.RefreshTokenHash = refreshTokenHash
	}
	return nil
}

func (r *memSessionRepo) UpdateLastSeen(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok {
		s.LastSeenAt = &at
	}
	return nil
}

func (r *memSessionRepo) activeCount(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.m {
		if s.UserID == userID && s.RevokedAt == nil {
			n++
		}
	}
	return n
}

type capturingMailer struct {
	mu   sync.Mutex
	to   string
	link string
}

func (m *capturingMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = to
	m.link = link
	return nil
}

type authFixture struct {
	svc      *AuthService
	users    *memUserRepo
	idents   *memIdentityRepo
	sessions *memSessionRepo
	resets   *passreset.MemoryStore
	mailer   *capturingMailer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("token provider: %v", err)
	}
	f := &authFixture{
		users:    newMemUserRepo(),
		idents:   newMemIdentityRepo(),
		sessions: newMemSessionRepo(),
		resets:   passreset.NewMemoryStore(time.Minute),
		mailer:   &capturingMailer{},
	}
	f.svc = NewAuthService(
		f.users, f.idents, f.sessions,
		security.NewHasher(4),
		tokens,
		f.resets,
		f.mailer,
		audit.Nop{},
		30*24*time.Hour,
		"tellaai://reset-password",
	)
	return f
}

func (f *authFixture) register(t *testing.T, email, password string) *AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), email, password)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return res
}

func TestRegisterAndLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res := f.register(t, "User@Example.com", "password1")
	if res.UserID == "" {
		t.Fatalf("empty user id")
	}
	if res.Email != "user@example.com" {
		t.Fatalf("email not normalized: %q", res.Email)
	}
	if res.AccessToken != "" {
		t.Fatalf("register must not issue tokens")
	}

	login, err := f.svc.Login(ctx, "user@example.com", "password1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.AccessToken == "" || login.RefreshToken == "" {
		t.Fatalf("login must issue tokens")
	}
	if login.UserID != res.UserID {
		t.Fatalf("login user %q != registered user %q", login.UserID, res.UserID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "a@b.com", "password1")
	_, err := f.svc.Register(context.Background(), "a@b.com", "password2")
	if !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Fatalf("expected ErrEmailAlreadyRegistered, got %v", err)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Register(ctx, "not-an-email", "password1"); !errors.Is(err, validation.ErrInvalidEmail) {
		t.Fatalf("expected invalid email, got %v", err)
	}
	if _, err := f.svc.Register(ctx, "a@b.com", "short"); !errors.Is(err, validation.ErrPasswordTooShort) {
		t.Fatalf("expected short password, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "a@b.com", "password1")
	_, err := f.svc.Login(context.Background(), "a@b.com", "wrongpass")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Login(context.Background(), "nobody@b.com", "password1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "a@b.com", "password1")
	login, err := f.svc.Login(ctx, "a@b.com", "password1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := f.svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatalf("refresh token not rotated")
	}

	// First token is now stale; presenting it again is reuse and nukes
	// every session of the user.
	_, err = f.svc.Refresh(ctx, login.RefreshToken)
	if !errors.Is(err, ErrRefreshTokenReuse) {
		t.Fatalf("expected ErrRefreshTokenReuse, got %v", err)
	}
	if n := f.sessions.activeCount(login.UserID); n != 0 {
		t.Fatalf("%d active sessions after reuse, want 0", n)
	}
}

func TestRefreshInvalidToken(t *testing.T) {
	f := newAuthFixture(t)
	for _, tok := range []string{"", "garbage"} {
		if _, err := f.svc.Refresh(context.Background(), tok); !errors.Is(err, ErrInvalidRefreshToken) {
			t.Fatalf("token %q: expected ErrInvalidRefreshToken, got %v", tok, err)
		}
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "a@b.com", "password1")
	login, err := f.svc.Login(ctx, "a@b.com", "password1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := f.svc.Logout(ctx, login.RefreshToken, ""); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if n := f.sessions.activeCount(login.UserID); n != 0 {
		t.Fatalf("%d active sessions after logout, want 0", n)
	}

	if _, err := f.svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("refresh after logout: expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestLogoutInvalidTokenIsNoop(t *testing.T) {
	f := newAuthFixture(t)
	if err := f.svc.Logout(context.Background(), "garbage", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	res := f.register(t, "a@b.com", "password1")

	if err := f.svc.DeleteUser(ctx, res.UserID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if u, _ := f.users.GetByID(ctx, res.UserID); u != nil {
		t.Fatalf("user still present after delete")
	}
	if err := f.svc.DeleteUser(ctx, res.UserID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	res := f.register(t, "a@b.com", "password1")

	if err := f.svc.RequestPasswordReset(ctx, "a@b.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if f.mailer.to != "a@b.com" || f.mailer.link == "" {
		t.Fatalf("reset mail not sent: to=%q link=%q", f.mailer.to, f.mailer.link)
	}

	// The handler extracts the token from the link's query parameter; here
	// we grab it straight from the captured link.
	const prefix = "tellaai://reset-password?token="
	if len(f.mailer.link) <= len(prefix) {
		t.Fatalf("malformed reset link %q", f.mailer.link)
	}
	token := f.mailer.link[len(prefix):]

	if err := f.svc.ResetPassword(ctx, token, "newpassword1"); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	if _, err := f.svc.Login(ctx, "a@b.com", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted")
	}
	login, err := f.svc.Login(ctx, "a@b.com", "newpassword1")
	if err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if login.UserID != res.UserID {
		t.Fatalf("wrong user after reset")
	}
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)
	if err := f.svc.RequestPasswordReset(context.Background(), "nobody@b.com"); err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}
	if f.mailer.to != "" {
		t.Fatalf("no mail expected for unknown email")
	}
}

func TestResetPasswordInvalidToken(t *testing.T) {
	f := newAuthFixture(t)
	err := f.svc.ResetPassword(context.Background(), "garbage", "newpassword1")
	if !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken, got %v", err)
	}
}

var _ mail.Sender = (*capturingMailer)(nil)
