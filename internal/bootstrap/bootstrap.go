// Package bootstrap resolves the caller's auth/profile state on the server
// and answers where the client should navigate. The mobile client calls it
// once at startup and after every session transition; the decision logic is
// the same guard the client runs locally, so both always agree.
package bootstrap

import (
	"context"
	"log/slog"
	"net/http"

	"tella/app/internal/authstate"
	"tella/app/internal/navigation"
	"tella/app/internal/security"
	"tella/app/internal/server/middleware"
	"tella/app/internal/server/respond"
)

// Service builds an auth state snapshot for a request subject.
type Service struct {
	profiles authstate.ProfileStore
	log      *slog.Logger
}

func NewService(profiles authstate.ProfileStore, log *slog.Logger) *Service {
	return &Service{profiles: profiles, log: log}
}

// StateFor resolves the state for an optional token subject. Server-side
// the first session check has by definition happened, so the state is
// always initialized. The bearer token carries no session material, so the
// snapshot holds a User with a nil Session; the guard only reads User.
func (s *Service) StateFor(ctx context.Context, sub *security.TokenSubject) authstate.State {
	state := authstate.State{Initialized: true}
	if sub == nil {
		return state
	}
	state.User = &authstate.UserIdentity{ID: sub.UserID, Email: sub.Email}
	p, err := s.profiles.GetByID(ctx, sub.UserID)
	if err != nil {
		s.log.Error("profile fetch failed", "user_id", sub.UserID, "error", err)
		p = nil
	} else if p == nil {
		s.log.Error("no profile record for authenticated user", "user_id", sub.UserID)
	}
	state.Profile = p
	return state
}

// Handler serves the navigation decision endpoint.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type response struct {
	Status   string `json:"status"`
	Decided  bool   `json:"decided"`
	Redirect string `json:"redirect,omitempty"`
	HasLikes bool   `json:"has_likes"`
	HasPlan  bool   `json:"has_plan"`
}

// Navigate resolves the caller's state and applies the onboarding guard to
// the current route group from the query string. Mounted behind
// OptionalAuth: anonymous callers get the auth flow decision.
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	var subPtr *security.TokenSubject
	if sub, ok := middleware.GetSubject(r.Context()); ok {
		subPtr = &sub
	}
	state := h.svc.StateFor(r.Context(), subPtr)
	current := navigation.Group(r.URL.Query().Get("current"))
	decision := navigation.Decide(state, current)

	respond.JSON(w, http.StatusOK, response{
		Status:   state.Status().String(),
		Decided:  decision.Decided,
		Redirect: string(decision.Redirect),
		HasLikes: state.HasLikes(),
		HasPlan:  state.HasPlan(),
	})
}
