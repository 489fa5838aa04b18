// Package telemetry defines the app's product telemetry events and a
// best-effort emitter for them. Events record what happened in the
// onboarding funnel (registrations, logins, step completions), not request
// traces; those come from the tracer.
package telemetry

import (
	"context"
	"time"
)

// Event is a single product telemetry event.
type Event struct {
	UserID    string
	SessionID string
	EventType string
	Source    string
	Metadata  []byte // JSON payload, may be nil
	CreatedAt time.Time
}

// EventEmitter emits telemetry events (e.g. to OTel Logs). Best-effort;
// callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}
