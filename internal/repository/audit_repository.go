package repository

import (
	"context"
	"time"

	"github.com/andressep95/rbac-auth/internal/domain"
)

type AuditLogRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter, page domain.PageRequest) ([]*domain.AuditLog, int, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
