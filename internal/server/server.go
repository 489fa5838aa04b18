// Package server wires the HTTP router and owns the listener lifecycle.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	billinghandler "tella/app/internal/billing/handler"
	"tella/app/internal/bootstrap"
	identityhandler "tella/app/internal/identity/handler"
	profilehandler "tella/app/internal/profile/handler"
	"tella/app/internal/security"
	"tella/app/internal/server/middleware"
	"tella/app/internal/server/respond"
)

// Deps carries everything the router mounts.
type Deps struct {
	Log               *slog.Logger
	Tokens            *security.TokenProvider
	Identity          *identityhandler.Handler
	Profile           *profilehandler.Handler
	Billing           *billinghandler.Handler
	Bootstrap         *bootstrap.Handler
	CORSAllowedOrigin string
}

// NewRouter builds the API router: public auth and catalog routes, Bearer
// protected profile and billing routes, and the navigation bootstrap.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.ClientIPToContext)
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.NewRateLimiter(rate.Limit(20), 40).Handler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{d.CORSAllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(d.Tokens))
			r.Route("/auth", d.Identity.Routes)
			r.Get("/navigate", d.Bootstrap.Navigate)
		})

		r.Get("/username-available", d.Profile.UsernameAvailable)
		r.Get("/plans", d.Billing.Plans)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(d.Tokens))
			r.Route("/profile", d.Profile.Routes)
			r.Route("/billing", d.Billing.Routes)
			r.Delete("/account", d.Identity.DeleteAccount)
		})
	})

	return r
}

// Server owns the HTTP listener.
type Server struct {
	http *http.Server
	log  *slog.Logger
}

func New(addr string, handler http.Handler, log *slog.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start blocks serving requests until Shutdown is called or the listener
// fails.
func (s *Server) Start() error {
	s.log.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
