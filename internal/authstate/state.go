// Package authstate owns the authentication and profile state machine: a
// single mutable aggregate mutated only through the store's operations and
// provider-driven session change events. The navigation guard and the UI
// layer read snapshots of it, never the live aggregate.
package authstate

import (
	"time"

	"tella/app/internal/profile/domain"
)

// UserIdentity is the stable id and email the provider embeds in a session.
// Immutable from this package's perspective.
type UserIdentity struct {
	ID    string
	Email string
}

// Session is the opaque credential bundle issued by the identity provider.
// Its expiry and refresh lifecycle belong to the provider; this package only
// observes transitions between nil, present, and present with a different
// identity.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         UserIdentity
}

// MinOnboardingLikes is the interest count that completes the likes step.
const MinOnboardingLikes = 3

// Status is the derived position in the state machine. The profile-missing
// case gets its own variant so callers can handle it exhaustively instead of
// inferring it from a nil field.
type Status int

const (
	StatusUninitialized Status = iota
	StatusUnauthenticated
	// StatusProfileMissing means a session resolved but no profile record
	// came back. This is an anomaly requiring caller intervention, not a
	// loading state.
	StatusProfileMissing
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusProfileMissing:
		return "profile_missing"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State is a snapshot of the aggregate. In snapshots produced by Store, User
// and Session are nil or non-nil together; states derived outside the store
// (the server resolves one from a bearer token, which carries no session
// material) may hold a User with a nil Session. Status and the navigation
// guard read User only. Profile is owned by the snapshot; mutating it does
// not touch the store.
type State struct {
	User        *UserIdentity
	Profile     *domain.Profile
	Session     *Session
	Loading     bool
	Initialized bool
}

// Status derives the machine position from the snapshot fields.
func (s State) Status() Status {
	switch {
	case !s.Initialized:
		return StatusUninitialized
	case s.User == nil:
		return StatusUnauthenticated
	case s.Profile == nil:
		return StatusProfileMissing
	default:
		return StatusAuthenticated
	}
}

// HasLikes reports whether the likes onboarding step is complete.
func (s State) HasLikes() bool {
	return s.Profile != nil && len(s.Profile.Likes) >= MinOnboardingLikes
}

// HasPlan reports whether a plan has been chosen.
func (s State) HasPlan() bool {
	return s.Profile != nil && s.Profile.Plan != domain.PlanNone
}

func (s State) clone() State {
	c := s
	if s.User != nil {
		u := *s.User
		c.User = &u
	}
	if s.Session != nil {
		sess := *s.Session
		c.Session = &sess
	}
	c.Profile = s.Profile.Clone()
	return c
}
