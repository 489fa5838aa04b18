package authstate

import (
	"context"
	"log/slog"
	"sync"

	"tella/app/internal/profile/domain"
)

// Provider is the consumer-side view of the identity provider. SignUp
// creates an identity without a session; a session appears only through
// SignInWithPassword or an externally driven change event.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (UserIdentity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	CurrentSession(ctx context.Context) (*Session, error)
	// OnSessionChange registers fn for every session transition the
	// provider observes. The returned function unsubscribes.
	OnSessionChange(fn func(*Session)) (unsubscribe func())
	// DeleteIdentity removes a newly created identity. Used only to roll
	// back a registration whose profile insert failed.
	DeleteIdentity(ctx context.Context, id string) error
}

// ProfileStore is the consumer-side view of profile persistence, keyed by
// identity id.
type ProfileStore interface {
	Insert(ctx context.Context, p *domain.Profile) error
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	Update(ctx context.Context, id string, u domain.Update) error
}

// Store holds the single AuthState aggregate and is the only writer to it.
// User-initiated operations are expected one at a time, but session change
// events from the provider may interleave with an in-flight call. The store
// resolves that race as last write wins; it does not fence or version the
// aggregate. The mutex protects memory, not ordering.
type Store struct {
	provider Provider
	profiles ProfileStore
	log      *slog.Logger

	initOnce sync.Once
	unsub    func()

	mu      sync.Mutex
	state   State
	subs    map[int]func(State)
	nextSub int
}

func NewStore(provider Provider, profiles ProfileStore, log *slog.Logger) *Store {
	return &Store{
		provider: provider,
		profiles: profiles,
		log:      log,
		subs:     make(map[int]func(State)),
	}
}

// Initialize runs the first session check, marks the state initialized
// whatever the outcome, and subscribes to session change events for the
// lifetime of the store. Safe to call more than once; only the first call
// does anything.
func (s *Store) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		sess, err := s.provider.CurrentSession(ctx)
		if err != nil {
			s.log.Warn("initial session check failed", "error", err)
			sess = nil
		}
		s.resolveSession(ctx, sess)
		s.unsub = s.provider.OnSessionChange(func(sess *Session) {
			s.resolveSession(context.Background(), sess)
		})
	})
}

// Close detaches the session change subscription.
func (s *Store) Close() {
	if s.unsub != nil {
		s.unsub()
	}
}

// State returns a snapshot of the aggregate. The snapshot is the caller's to
// keep; later mutations do not reach it.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn for every state change. fn receives a snapshot and
// runs on the mutating goroutine; keep it short. The returned function
// unsubscribes.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// resolveSession maps a session (or its absence) to a full aggregate value.
// A fetch failure or a missing record both land as a nil profile; State.Status
// surfaces that as StatusProfileMissing for the caller to handle. Never
// retried here.
func (s *Store) resolveSession(ctx context.Context, sess *Session) {
	var user *UserIdentity
	var prof *domain.Profile
	if sess != nil {
		u := sess.User
		user = &u
		p, err := s.profiles.GetByID(ctx, u.ID)
		if err != nil {
			s.log.Error("profile fetch failed", "user_id", u.ID, "error", err)
		} else if p == nil {
			s.log.Error("no profile record for authenticated user", "user_id", u.ID)
		}
		prof = p
	}

	s.mu.Lock()
	s.state = State{
		User:        user,
		Profile:     prof,
		Session:     sess,
		Loading:     false,
		Initialized: true,
	}
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()
	publish(snap, subs)
}

// SignIn authenticates against the provider. On success the state is NOT
// updated here: the session change subscription observes the new session and
// resolves it, so Loading stays true until that completes. On failure
// Loading is reverted and the provider's error is returned unchanged inside
// a KindAuthFailure.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	s.setLoading(true)
	if _, err := s.provider.SignInWithPassword(ctx, email, password); err != nil {
		s.setLoading(false)
		return authFailure(err)
	}
	return nil
}

// SignUpData carries the registration fields. Field validation happens
// before this layer; the store only sequences the remote calls.
type SignUpData struct {
	Email     string
	Password  string
	Username  string
	Birthdate string
}

// SignUp creates an identity, then the profile record, then signs in. If the
// profile insert fails after the identity was created, the identity is
// deleted again so no identity-without-profile persists, and the insert
// error is returned to the caller.
func (s *Store) SignUp(ctx context.Context, data SignUpData) error {
	s.setLoading(true)

	identity, err := s.provider.SignUp(ctx, data.Email, data.Password)
	if err != nil {
		s.setLoading(false)
		return authFailure(err)
	}

	prof := &domain.Profile{
		ID:        identity.ID,
		Username:  data.Username,
		Birthdate: data.Birthdate,
	}
	if err := s.profiles.Insert(ctx, prof); err != nil {
		if delErr := s.provider.DeleteIdentity(ctx, identity.ID); delErr != nil {
			s.log.Error("identity rollback failed, orphan identity left behind",
				"user_id", identity.ID, "error", delErr)
		}
		s.setLoading(false)
		return writeFailure(err)
	}

	if _, err := s.provider.SignInWithPassword(ctx, data.Email, data.Password); err != nil {
		s.setLoading(false)
		return authFailure(err)
	}
	return nil
}

// SignOut invalidates the session at the provider. As with SignIn, the
// subscription observes the session becoming nil and resolves the
// unauthenticated state; failure reverts Loading and re-raises.
func (s *Store) SignOut(ctx context.Context) error {
	s.setLoading(true)
	if err := s.provider.SignOut(ctx); err != nil {
		s.setLoading(false)
		return authFailure(err)
	}
	return nil
}

// UpdateLikes persists tags against the current user's profile, then applies
// the same value to the in-memory profile. If the store write fails, local
// state is left untouched.
func (s *Store) UpdateLikes(ctx context.Context, tags []string) error {
	id, err := s.currentUserID()
	if err != nil {
		return err
	}

	likes := append([]string(nil), tags...)
	if err := s.profiles.Update(ctx, id, domain.Update{Likes: &likes}); err != nil {
		return writeFailure(err)
	}

	s.mu.Lock()
	if s.state.Profile != nil {
		s.state.Profile.Likes = append([]string(nil), likes...)
	}
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()
	publish(snap, subs)
	return nil
}

// UpdatePlan is UpdateLikes for the plan field.
func (s *Store) UpdatePlan(ctx context.Context, plan domain.Plan) error {
	id, err := s.currentUserID()
	if err != nil {
		return err
	}

	if err := s.profiles.Update(ctx, id, domain.Update{Plan: &plan}); err != nil {
		return writeFailure(err)
	}

	s.mu.Lock()
	if s.state.Profile != nil {
		s.state.Profile.Plan = plan
	}
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()
	publish(snap, subs)
	return nil
}

// RefreshProfile re-fetches the profile and replaces it wholesale. A no-op
// without a current user. A failed fetch lands as a nil profile, same as in
// resolveSession.
func (s *Store) RefreshProfile(ctx context.Context) {
	id, err := s.currentUserID()
	if err != nil {
		return
	}

	p, fetchErr := s.profiles.GetByID(ctx, id)
	if fetchErr != nil {
		s.log.Error("profile refresh failed", "user_id", id, "error", fetchErr)
		p = nil
	}

	s.mu.Lock()
	s.state.Profile = p
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()
	publish(snap, subs)
}

func (s *Store) currentUserID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.User == nil {
		return "", ErrNotAuthenticated
	}
	return s.state.User.ID, nil
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.state.Loading = v
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()
	publish(snap, subs)
}

// snapshotLocked must be called with mu held.
func (s *Store) snapshotLocked() (State, []func(State)) {
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return s.state.clone(), subs
}

func publish(snap State, subs []func(State)) {
	for _, fn := range subs {
		fn(snap)
	}
}
