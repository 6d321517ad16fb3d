package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/andressep95/rbac-auth/internal/repository"
)

type auditLogRepository struct {
	db *sqlx.DB
}

// NewAuditLogRepository creates a new PostgreSQL audit log repository
func NewAuditLogRepository(db *sqlx.DB) repository.AuditLogRepository {
	return &auditLogRepository{db: db}
}

// Create appends an audit entry
func (r *auditLogRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	query := `
		INSERT INTO audit_logs (username, action, timestamp)
		VALUES ($1, $2, $3)
		RETURNING id`

	if err := r.db.QueryRowxContext(ctx, query, entry.Username, entry.Action, entry.Timestamp).Scan(&entry.ID); err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// List retrieves one page of audit entries, newest first
func (r *auditLogRepository) List(ctx context.Context, filter domain.AuditFilter, page domain.PageRequest) ([]*domain.AuditLog, int, error) {
	where := `
		WHERE ($1::text = '' OR LOWER(username) = LOWER($1::text))
		  AND ($2::text = '' OR UPPER(action) = UPPER($2::text))`

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM audit_logs`+where, filter.Username, filter.Action); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query := `SELECT id, username, action, timestamp FROM audit_logs` + where + `
		ORDER BY timestamp DESC, id DESC
		LIMIT $3 OFFSET $4`

	var entries []*domain.AuditLog
	if err := r.db.SelectContext(ctx, &entries, query, filter.Username, filter.Action, page.Limit, page.Skip()); err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	return entries, total, nil
}

// DeleteBefore purges audit entries older than the cutoff
func (r *auditLogRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM audit_logs WHERE timestamp < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete audit logs: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}
