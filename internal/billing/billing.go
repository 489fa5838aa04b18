// Package billing is a simulated billing collaborator. It never charges
// anything; subscribing waits a configurable latency and reports success.
package billing

import (
	"context"
	"log/slog"
	"time"

	"tella/app/internal/profile/domain"
)

// ErrUnknownPlan is returned when the requested plan is not in the catalog.
var ErrUnknownPlan = domain.ErrUnknownPlan

// Plan describes a subscription tier as shown on the plan selection screen.
type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Price    string   `json:"price"`
	Features []string `json:"features"`
}

// SubscribeResult is the outcome of a subscription attempt.
type SubscribeResult struct {
	Success bool        `json:"success"`
	Plan    domain.Plan `json:"plan"`
}

// Service is the billing collaborator consumed by the plan step.
type Service interface {
	Subscribe(ctx context.Context, plan domain.Plan) (SubscribeResult, error)
	Plans() []Plan
}

// Mock implements Service without a payment processor behind it.
type Mock struct {
	latency time.Duration
	log     *slog.Logger
}

// NewMock returns a mock billing service that sleeps latency per
// subscription to mimic a payment API round trip.
func NewMock(latency time.Duration, log *slog.Logger) *Mock {
	return &Mock{latency: latency, log: log}
}

// Subscribe simulates subscribing to a plan. Returns ErrUnknownPlan for
// plans outside the catalog; otherwise succeeds after the configured
// latency, or earlier with the context's error if it is cancelled.
func (m *Mock) Subscribe(ctx context.Context, plan domain.Plan) (SubscribeResult, error) {
	if _, err := domain.ParsePlan(string(plan)); err != nil {
		return SubscribeResult{}, err
	}
	if m.latency > 0 {
		select {
		case <-time.After(m.latency):
		case <-ctx.Done():
			return SubscribeResult{}, ctx.Err()
		}
	}
	m.log.Info("mock subscription completed", "plan", string(plan))
	return SubscribeResult{Success: true, Plan: plan}, nil
}

// Plans returns the plan catalog.
func (m *Mock) Plans() []Plan {
	return []Plan{
		{
			ID:    "free",
			Name:  "Free",
			Title: "Explore the basics",
			Price: "$0",
			Features: []string{
				"Access to basic characters",
				"Limited conversations per day",
				"Email support",
			},
		},
		{
			ID:    "pro",
			Name:  "Pro",
			Title: "Premium access",
			Price: "$9.90",
			Features: []string{
				"Unlimited premium characters",
				"Exclusive voices and scenes",
				"Unlimited conversations",
			},
		},
	}
}
