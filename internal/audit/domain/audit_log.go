// Package domain holds the audit trail record type.
package domain

import "time"

// AuditLog is one recorded auth or profile event: who did what to which
// resource, from where. Metadata carries optional JSON detail.
type AuditLog struct {
	ID        string
	UserID    string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
