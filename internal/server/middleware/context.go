package middleware

import (
	"context"
	"net/http"

	"tella/app/internal/security"
)

type contextKey string

const subjectKey contextKey = "auth.subject"

// WithSubject returns a context carrying the authenticated token subject.
func WithSubject(ctx context.Context, sub security.TokenSubject) context.Context {
	return context.WithValue(ctx, subjectKey, sub)
}

// GetSubject returns the authenticated token subject, if any.
func GetSubject(ctx context.Context) (security.TokenSubject, bool) {
	sub, ok := ctx.Value(subjectKey).(security.TokenSubject)
	return sub, ok
}

const clientIPKey contextKey = "client.ip"

// ClientIPToContext records the request's client IP in the context so the
// audit logger can pick it up below the HTTP layer.
func ClientIPToContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), clientIPKey, ClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromContext returns the recorded client IP, or "unknown".
func ClientIPFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey).(string); ok && ip != "" {
		return ip
	}
	return "unknown"
}
