package ports

import (
	"context"

	"github.com/ledgerdesk/admin-console/internal/core/domain"
)

// AuditRepository persists audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
}

// Auditor accepts audit events without blocking the caller.
type Auditor interface {
	Record(event domain.AuditEvent)
}

// NopAuditor discards every event.
type NopAuditor struct{}

func (NopAuditor) Record(domain.AuditEvent) {}
