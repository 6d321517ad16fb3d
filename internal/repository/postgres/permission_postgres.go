package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/andressep95/rbac-auth/internal/repository"
)

const permissionColumns = `p.id, p.name, p.description, p.active, p.created_by, p.updated_by, p.created_at, p.updated_at`

type permissionRepository struct {
	db *sqlx.DB
}

// NewPermissionRepository creates a new PostgreSQL permission repository
func NewPermissionRepository(db *sqlx.DB) repository.PermissionRepository {
	return &permissionRepository{db: db}
}

// Create inserts a new permission and fills in the generated id
func (r *permissionRepository) Create(ctx context.Context, permission *domain.Permission) error {
	query := `
		INSERT INTO permissions (name, description, active, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := r.db.QueryRowxContext(ctx, query,
		permission.Name, permission.Description, permission.Active,
		permission.CreatedBy, permission.UpdatedBy, permission.CreatedAt, permission.UpdatedAt,
	).Scan(&permission.ID)
	if err != nil {
		return wrapWriteErr("create permission", err)
	}
	return nil
}

// Update updates an existing permission
func (r *permissionRepository) Update(ctx context.Context, permission *domain.Permission) error {
	permission.UpdatedAt = time.Now()

	query := `
		UPDATE permissions
		SET name = :name, description = :description, active = :active,
			updated_by = :updated_by, updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, permission)
	if err != nil {
		return wrapWriteErr("update permission", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("permission not found: %w", repository.ErrNotFound)
	}

	return nil
}

// GetByID retrieves a permission by id regardless of status
func (r *permissionRepository) GetByID(ctx context.Context, id int64) (*domain.Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions p WHERE p.id = $1`

	var permission domain.Permission
	err := r.db.GetContext(ctx, &permission, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("permission not found: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get permission by id: %w", err)
	}

	return &permission, nil
}

// FindActiveByName retrieves an active permission by name, ignoring case
func (r *permissionRepository) FindActiveByName(ctx context.Context, name string) (*domain.Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions p WHERE UPPER(p.name) = UPPER($1) AND p.active = TRUE`

	var permission domain.Permission
	err := r.db.GetContext(ctx, &permission, query, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("permission not found: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get permission by name: %w", err)
	}

	return &permission, nil
}

// FindActiveByNames resolves names to active permissions in one round trip
func (r *permissionRepository) FindActiveByNames(ctx context.Context, names []string) ([]*domain.Permission, error) {
	if len(names) == 0 {
		return []*domain.Permission{}, nil
	}

	query := `
		SELECT ` + permissionColumns + `
		FROM permissions p
		WHERE p.active = TRUE AND p.name = ANY($1)
		ORDER BY p.id
		LIMIT $2`

	var permissions []*domain.Permission
	if err := r.db.SelectContext(ctx, &permissions, query, pq.Array(names), len(names)); err != nil {
		return nil, fmt.Errorf("failed to get permissions by names: %w", err)
	}

	return permissions, nil
}

// ListActive retrieves one page of active permissions, newest first
func (r *permissionRepository) ListActive(ctx context.Context, page domain.PageRequest) ([]*domain.Permission, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM permissions WHERE active = TRUE`); err != nil {
		return nil, 0, fmt.Errorf("failed to count permissions: %w", err)
	}

	query := `
		SELECT ` + permissionColumns + `
		FROM permissions p
		WHERE p.active = TRUE
		ORDER BY p.created_at DESC, p.id
		LIMIT $1 OFFSET $2`

	var permissions []*domain.Permission
	if err := r.db.SelectContext(ctx, &permissions, query, page.Limit, page.Skip()); err != nil {
		return nil, 0, fmt.Errorf("failed to list permissions: %w", err)
	}

	return permissions, total, nil
}

// ListActiveByRole retrieves one page of active permissions attached to a role
func (r *permissionRepository) ListActiveByRole(ctx context.Context, roleName string, page domain.PageRequest) ([]*domain.Permission, int, error) {
	from := `
		FROM permissions p
		INNER JOIN role_permissions rp ON rp.permission_id = p.id
		INNER JOIN roles r ON r.id = rp.role_id
		WHERE r.name = $1 AND p.active = TRUE`

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) `+from, roleName); err != nil {
		return nil, 0, fmt.Errorf("failed to count role permissions: %w", err)
	}

	query := `SELECT ` + permissionColumns + from + `
		ORDER BY p.created_at DESC, p.id
		LIMIT $2 OFFSET $3`

	var permissions []*domain.Permission
	if err := r.db.SelectContext(ctx, &permissions, query, roleName, page.Limit, page.Skip()); err != nil {
		return nil, 0, fmt.Errorf("failed to list role permissions: %w", err)
	}

	return permissions, total, nil
}

// GetUserPermissionNames collects active permissions across the user's active roles
func (r *permissionRepository) GetUserPermissionNames(ctx context.Context, userID int64) ([]string, error) {
	query := `
		SELECT DISTINCT p.name
		FROM permissions p
		INNER JOIN role_permissions rp ON p.id = rp.permission_id
		INNER JOIN roles r ON r.id = rp.role_id
		INNER JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1 AND r.is_active = TRUE AND p.active = TRUE
		ORDER BY p.name`

	var names []string
	if err := r.db.SelectContext(ctx, &names, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get user permissions: %w", err)
	}

	return names, nil
}
