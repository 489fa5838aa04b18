// Package handler exposes the auth endpoints consumed by the mobile client.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tella/app/internal/identity/service"
	profilerepo "tella/app/internal/profile/repository"
	profileservice "tella/app/internal/profile/service"
	"tella/app/internal/server/middleware"
	"tella/app/internal/server/respond"
	"tella/app/internal/telemetry"
	"tella/app/internal/validation"
)

type Handler struct {
	auth     *service.AuthService
	profiles *profileservice.Service
	emitter  telemetry.EventEmitter
	log      *slog.Logger
}

func New(auth *service.AuthService, profiles *profileservice.Service, emitter telemetry.EventEmitter, log *slog.Logger) *Handler {
	return &Handler{auth: auth, profiles: profiles, emitter: emitter, log: log}
}

// Routes mounts the public auth endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/refresh", h.refresh)
	r.Post("/logout", h.logout)
	r.Post("/password-reset/request", h.requestPasswordReset)
	r.Post("/password-reset/confirm", h.confirmPasswordReset)
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Username  string `json:"username"`
	Birthdate string `json:"birthdate"`
}

// register creates the identity and its profile as one logical operation.
// When the profile insert fails after the identity was created, the identity
// is deleted again and the profile error is returned, so no account without
// a profile can exist.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if err := validation.ValidateRegistration(validation.Registration{
		Email:     req.Email,
		Password:  req.Password,
		Username:  req.Username,
		Birthdate: req.Birthdate,
	}); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	if err := h.profiles.Create(r.Context(), res.UserID, req.Username, req.Birthdate); err != nil {
		if delErr := h.auth.DeleteUser(r.Context(), res.UserID); delErr != nil {
			h.log.Error("registration rollback failed", "user_id", res.UserID, "error", delErr)
		}
		h.writeProfileError(w, err)
		return
	}

	telemetry.EmitAsync(r.Context(), h.emitter, &telemetry.Event{
		UserID: res.UserID, EventType: "signup_completed", Source: "api",
	})
	respond.JSON(w, http.StatusCreated, map[string]string{
		"user_id": res.UserID,
		"email":   res.Email,
	})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	telemetry.EmitAsync(r.Context(), h.emitter, &telemetry.Event{
		UserID: res.UserID, EventType: "login", Source: "api",
	})
	respond.JSON(w, http.StatusOK, tokenResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.ExpiresAt.Unix(),
		UserID:       res.UserID,
		Email:        res.Email,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	res, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, tokenResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.ExpiresAt.Unix(),
		UserID:       res.UserID,
		Email:        res.Email,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	// Body is optional; a Bearer-only logout sends none.
	if r.ContentLength > 0 {
		if !respond.Decode(w, r, &req) {
			return
		}
	}
	sessionID := ""
	if sub, ok := middleware.GetSubject(r.Context()); ok {
		sessionID = sub.SessionID
	}
	if err := h.auth.Logout(r.Context(), req.RefreshToken, sessionID); err != nil {
		respond.Error(w, http.StatusInternalServerError, "logout failed")
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

func (h *Handler) requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.log.Error("password reset request failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "could not send reset mail")
		return
	}
	// Always accepted so the endpoint cannot confirm whether an address is
	// registered.
	respond.JSON(w, http.StatusAccepted, map[string]string{"status": "ok"})
}

type passwordResetConfirm struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) confirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetConfirm
	if !respond.Decode(w, r, &req) {
		return
	}
	if err := h.auth.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidResetToken),
			errors.Is(err, validation.ErrPasswordTooShort):
			respond.Error(w, http.StatusBadRequest, err.Error())
		default:
			respond.Error(w, http.StatusInternalServerError, "could not reset password")
		}
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

// DeleteAccount removes the authenticated user. Mounted behind RequireAuth.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	sub, ok := middleware.GetSubject(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if err := h.auth.DeleteUser(r.Context(), sub.UserID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respond.Error(w, http.StatusNotFound, err.Error())
			return
		}
		respond.Error(w, http.StatusInternalServerError, "could not delete account")
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

func (h *Handler) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		respond.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidRefreshToken),
		errors.Is(err, service.ErrRefreshTokenReuse):
		respond.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, validation.ErrInvalidEmail),
		errors.Is(err, validation.ErrPasswordTooShort):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("auth request failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) writeProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profilerepo.ErrUsernameTaken):
		respond.Error(w, http.StatusConflict, "username already taken")
	case errors.Is(err, validation.ErrInvalidUsername),
		errors.Is(err, validation.ErrUnderage),
		errors.Is(err, validation.ErrInvalidBirthdate):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("profile write failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}
