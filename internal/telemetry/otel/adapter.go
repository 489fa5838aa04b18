package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"tella/app/internal/telemetry"
)

// NewEventEmitter adapts a LoggerProvider to telemetry.EventEmitter: each
// product event becomes one OTel log record. A nil provider yields a no-op
// emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("tella.telemetry")}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *telemetry.Event) error { return nil }

type otelEmitter struct {
	logger otellog.Logger
}

func (e *otelEmitter) Emit(ctx context.Context, event *telemetry.Event) error {
	if event == nil {
		return nil
	}
	var rec otellog.Record
	ts := event.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	if len(event.Metadata) > 0 {
		rec.SetBody(otellog.BytesValue(event.Metadata))
	}
	for _, attr := range []struct{ key, val string }{
		{"event_type", event.EventType},
		{"user_id", event.UserID},
		{"session_id", event.SessionID},
		{"source", event.Source},
	} {
		if attr.val != "" {
			rec.AddAttributes(otellog.String(attr.key, attr.val))
		}
	}
	e.logger.Emit(ctx, rec)
	return nil
}
