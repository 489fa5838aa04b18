package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tella/app/internal/billing"
	"tella/app/internal/profile/domain"
	profileservice "tella/app/internal/profile/service"
	"tella/app/internal/server/middleware"
	"tella/app/internal/server/respond"
)

type Handler struct {
	billing  billing.Service
	profiles *profileservice.Service
	log      *slog.Logger
}

func New(b billing.Service, profiles *profileservice.Service, log *slog.Logger) *Handler {
	return &Handler{billing: b, profiles: profiles, log: log}
}

// Routes mounts the authenticated billing endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/subscribe", h.subscribe)
}

// Plans is public; the plan screen shows the catalog before sign-up too.
func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.billing.Plans())
}

type subscribeRequest struct {
	Plan string `json:"plan"`
}

// subscribe runs the mock billing call and, on success, records the plan on
// the profile. The billing result and the stored plan must agree; a failed
// profile write fails the whole request.
func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	sub, _ := middleware.GetSubject(r.Context())
	var req subscribeRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	res, err := h.billing.Subscribe(r.Context(), domain.Plan(req.Plan))
	if err != nil {
		if errors.Is(err, billing.ErrUnknownPlan) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("subscription failed", "user_id", sub.UserID, "error", err)
		respond.Error(w, http.StatusBadGateway, "billing unavailable")
		return
	}
	if !res.Success {
		respond.Error(w, http.StatusPaymentRequired, "subscription declined")
		return
	}

	if err := h.profiles.SetPlan(r.Context(), sub.UserID, string(res.Plan)); err != nil {
		h.log.Error("plan write failed after subscription", "user_id", sub.UserID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "could not record plan")
		return
	}
	respond.JSON(w, http.StatusOK, res)
}
