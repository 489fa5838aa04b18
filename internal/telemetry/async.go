package telemetry

import (
	"context"
	"log"
	"time"
)

// emitTimeout bounds one async emit. ShutdownDrainDuration is derived from it
// so the server's drain window always covers an emit already in flight.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long the server waits after the HTTP listener
// stops before closing the OTel providers.
const ShutdownDrainDuration = emitTimeout

// EmitAsync fires event at the emitter on a fresh goroutine and returns
// immediately. The goroutine gets its own deadline from context.Background,
// so cancelling the request that produced the event does not abort the emit
// (ctx is accepted for signature symmetry with Emit and reserved for trace
// propagation). A nil emitter or event is a no-op. Failures are logged,
// never returned; product analytics must not affect request outcomes.
func EmitAsync(ctx context.Context, emitter EventEmitter, event *Event) {
	if emitter == nil || event == nil {
		return
	}
	go func() {
		emitCtx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, event); err != nil {
			log.Printf("telemetry: async emit failed: %v", err)
		}
	}()
}
