// Package handler exposes the profile endpoints. All routes except the
// username availability check require a Bearer token.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tella/app/internal/profile/domain"
	"tella/app/internal/profile/repository"
	"tella/app/internal/profile/service"
	"tella/app/internal/server/middleware"
	"tella/app/internal/server/respond"
	"tella/app/internal/telemetry"
	"tella/app/internal/validation"
)

type Handler struct {
	profiles *service.Service
	emitter  telemetry.EventEmitter
	log      *slog.Logger
}

func New(profiles *service.Service, emitter telemetry.EventEmitter, log *slog.Logger) *Handler {
	return &Handler{profiles: profiles, emitter: emitter, log: log}
}

// Routes mounts the authenticated profile endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.get)
	r.Put("/username", h.setUsername)
	r.Put("/likes", h.setLikes)
	r.Put("/plan", h.setPlan)
}

type profileResponse struct {
	ID        string   `json:"id"`
	Username  string   `json:"username,omitempty"`
	Birthdate string   `json:"birthdate,omitempty"`
	Likes     []string `json:"likes,omitempty"`
	Plan      string   `json:"plan,omitempty"`
}

func toResponse(p *domain.Profile) profileResponse {
	return profileResponse{
		ID:        p.ID,
		Username:  p.Username,
		Birthdate: p.Birthdate,
		Likes:     p.Likes,
		Plan:      string(p.Plan),
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	sub, _ := middleware.GetSubject(r.Context())
	p, err := h.profiles.Get(r.Context(), sub.UserID)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			respond.Error(w, http.StatusNotFound, err.Error())
			return
		}
		h.log.Error("profile fetch failed", "user_id", sub.UserID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond.JSON(w, http.StatusOK, toResponse(p))
}

type usernameRequest struct {
	Username string `json:"username"`
}

func (h *Handler) setUsername(w http.ResponseWriter, r *http.Request) {
	sub, _ := middleware.GetSubject(r.Context())
	var req usernameRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if err := h.profiles.SetUsername(r.Context(), sub.UserID, req.Username); err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

type likesRequest struct {
	Likes []string `json:"likes"`
}

func (h *Handler) setLikes(w http.ResponseWriter, r *http.Request) {
	sub, _ := middleware.GetSubject(r.Context())
	var req likesRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if err := h.profiles.SetLikes(r.Context(), sub.UserID, req.Likes); err != nil {
		h.writeError(w, err)
		return
	}
	if validation.ValidateLikes(req.Likes) {
		telemetry.EmitAsync(r.Context(), h.emitter, &telemetry.Event{
			UserID: sub.UserID, EventType: "likes_step_completed", Source: "api",
		})
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

type planRequest struct {
	Plan string `json:"plan"`
}

func (h *Handler) setPlan(w http.ResponseWriter, r *http.Request) {
	sub, _ := middleware.GetSubject(r.Context())
	var req planRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if err := h.profiles.SetPlan(r.Context(), sub.UserID, req.Plan); err != nil {
		h.writeError(w, err)
		return
	}
	telemetry.EmitAsync(r.Context(), h.emitter, &telemetry.Event{
		UserID: sub.UserID, EventType: "plan_selected", Source: "api",
		Metadata: []byte(`{"plan":"` + req.Plan + `"}`),
	})
	respond.JSON(w, http.StatusNoContent, nil)
}

// UsernameAvailable is the public availability check used while typing on
// the registration form.
func (h *Handler) UsernameAvailable(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	available, err := h.profiles.UsernameAvailable(r.Context(), username)
	if err != nil {
		if errors.Is(err, validation.ErrInvalidUsername) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("username check failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"available": available})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrUsernameTaken):
		respond.Error(w, http.StatusConflict, "username already taken")
	case errors.Is(err, validation.ErrInvalidUsername),
		errors.Is(err, validation.ErrUnderage),
		errors.Is(err, validation.ErrInvalidBirthdate):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnknownPlan):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("profile write failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}
