package ports

import (
	"context"

	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
)

// AuditRepository appends to and reads back the audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditEntry) error
	List(ctx context.Context, subjectID string, limit int64) ([]domain.AuditEntry, error)
}

// AuditRecorder accepts audit entries without blocking the caller on I/O.
type AuditRecorder interface {
	Record(entry domain.AuditEntry)
}
