// Package audit keeps a durable trail of security-relevant events:
// registrations, logins, logouts, password resets, profile writes.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"tella/app/internal/audit/domain"
	auditrepo "tella/app/internal/audit/repository"
)

// IPExtractor pulls the client IP out of a request context.
type IPExtractor func(context.Context) string

// AuditLogger records one event per call. Recording is best-effort and must
// never fail the operation being audited.
type AuditLogger interface {
	LogEvent(ctx context.Context, userID, action, resource, metadata string)
}

// Logger persists events through the audit repository, stamping each with the
// caller's IP when an extractor is configured.
type Logger struct {
	repo     auditrepo.Repository
	clientIP IPExtractor
}

// NewLogger returns a Logger writing to repo. A nil ipExtractor records the
// IP as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, clientIP: ipExtractor}
}

func (l *Logger) LogEvent(ctx context.Context, userID, action, resource, metadata string) {
	if l.repo == nil {
		return
	}
	ip := "unknown"
	if l.clientIP != nil {
		ip = l.clientIP(ctx)
	}
	err := l.repo.Create(ctx, &domain.AuditLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("audit: dropped event %s/%s: %v", action, resource, err)
	}
}

// Nop drops every event. Used in tests and tooling.
type Nop struct{}

func (Nop) LogEvent(ctx context.Context, userID, action, resource, metadata string) {}
