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

const roleColumns = `r.id, r.name, r.description, r.is_active, r.created_by, r.updated_by, r.created_at, r.updated_at`

type RoleRepository struct {
	db *sqlx.DB
}

func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create creates a new role
func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) error {
	query := `
		INSERT INTO roles (name, description, is_active, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := r.db.QueryRowxContext(ctx, query,
		role.Name, role.Description, role.IsActive, role.CreatedBy, role.UpdatedBy, role.CreatedAt, role.UpdatedAt,
	).Scan(&role.ID)
	if err != nil {
		return wrapWriteErr("create role", err)
	}
	return nil
}

// Update updates a role
func (r *RoleRepository) Update(ctx context.Context, role *domain.Role) error {
	role.UpdatedAt = time.Now()

	query := `
		UPDATE roles
		SET name = :name, description = :description, is_active = :is_active,
			updated_by = :updated_by, updated_at = :updated_at
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, role)
	if err != nil {
		return wrapWriteErr("update role", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("role not found: %w", repository.ErrNotFound)
	}

	return nil
}

// GetByName retrieves a role by name regardless of status
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles r WHERE r.name = $1`
	return r.getOne(ctx, query, name)
}

// FindActiveByName retrieves an active role by name
func (r *RoleRepository) FindActiveByName(ctx context.Context, name string) (*domain.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles r WHERE r.name = $1 AND r.is_active = TRUE`
	return r.getOne(ctx, query, name)
}

func (r *RoleRepository) getOne(ctx context.Context, query string, args ...interface{}) (*domain.Role, error) {
	var role domain.Role
	err := r.db.GetContext(ctx, &role, query, args...)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("role not found: %w", repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	return &role, nil
}

// FindActiveByNames resolves names to active roles in one round trip
func (r *RoleRepository) FindActiveByNames(ctx context.Context, names []string) ([]*domain.Role, error) {
	if len(names) == 0 {
		return []*domain.Role{}, nil
	}

	query := `
		SELECT ` + roleColumns + `
		FROM roles r
		WHERE r.is_active = TRUE AND r.name = ANY($1)
		ORDER BY r.id
		LIMIT $2`

	var roles []*domain.Role
	if err := r.db.SelectContext(ctx, &roles, query, pq.Array(names), len(names)); err != nil {
		return nil, fmt.Errorf("failed to get roles by names: %w", err)
	}

	return roles, nil
}

// Search lists roles whose name or any permission name contains the term
func (r *RoleRepository) Search(ctx context.Context, search string, page domain.PageRequest) ([]*domain.Role, int, error) {
	where := `WHERE $1::text = '' OR r.name ILIKE '%' || $1::text || '%'
		   OR EXISTS (
			   SELECT 1 FROM role_permissions rp
			   JOIN permissions p ON p.id = rp.permission_id
			   WHERE rp.role_id = r.id AND p.name ILIKE '%' || $1::text || '%'
		   )`
	return r.page(ctx, where, page, search)
}

// List retrieves active roles matching any of the given ids or names
func (r *RoleRepository) List(ctx context.Context, ids []int64, names []string, page domain.PageRequest) ([]*domain.Role, int, error) {
	where := `WHERE r.is_active = TRUE AND (r.id = ANY($1) OR r.name = ANY($2))`
	return r.page(ctx, where, page, pq.Array(ids), pq.Array(names))
}

// FindByPermissionIDs retrieves roles granting any of the given permissions
func (r *RoleRepository) FindByPermissionIDs(ctx context.Context, permissionIDs []int64, page domain.PageRequest) ([]*domain.Role, int, error) {
	where := `WHERE EXISTS (
			SELECT 1 FROM role_permissions rp
			WHERE rp.role_id = r.id AND rp.permission_id = ANY($1)
		)`
	return r.page(ctx, where, page, pq.Array(permissionIDs))
}

// FindByPermissionNames retrieves roles granting any of the named permissions
func (r *RoleRepository) FindByPermissionNames(ctx context.Context, names []string, page domain.PageRequest) ([]*domain.Role, int, error) {
	where := `WHERE EXISTS (
			SELECT 1 FROM role_permissions rp
			JOIN permissions p ON p.id = rp.permission_id
			WHERE rp.role_id = r.id AND p.name = ANY($1)
		)`
	return r.page(ctx, where, page, pq.Array(names))
}

// page runs a filtered count plus a windowed select and attaches permissions.
func (r *RoleRepository) page(ctx context.Context, where string, page domain.PageRequest, args ...interface{}) ([]*domain.Role, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM roles r `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count roles: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM roles r %s ORDER BY r.created_at DESC, r.id LIMIT $%d OFFSET $%d`,
		roleColumns, where, n+1, n+2)

	var roles []*domain.Role
	if err := r.db.SelectContext(ctx, &roles, query, append(args, page.Limit, page.Skip())...); err != nil {
		return nil, 0, fmt.Errorf("failed to list roles: %w", err)
	}

	if err := r.attachPermissions(ctx, roles); err != nil {
		return nil, 0, err
	}

	return roles, total, nil
}

type rolePermissionRow struct {
	RoleID int64 `db:"role_id"`
	domain.Permission
}

// attachPermissions loads the permissions of every role in a single query.
func (r *RoleRepository) attachPermissions(ctx context.Context, roles []*domain.Role) error {
	if len(roles) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(roles))
	byID := make(map[int64]*domain.Role, len(roles))
	for _, role := range roles {
		ids = append(ids, role.ID)
		byID[role.ID] = role
		role.Permissions = []*domain.Permission{}
	}

	query := `
		SELECT rp.role_id, p.id, p.name, p.description, p.active, p.created_by, p.updated_by, p.created_at, p.updated_at
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = ANY($1)
		ORDER BY p.id`

	var rows []rolePermissionRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to get role permissions: %w", err)
	}

	for i := range rows {
		perm := rows[i].Permission
		byID[rows[i].RoleID].Permissions = append(byID[rows[i].RoleID].Permissions, &perm)
	}

	return nil
}

// GetUserRoles retrieves the active roles assigned to a user
func (r *RoleRepository) GetUserRoles(ctx context.Context, userID int64) ([]*domain.Role, error) {
	query := `
		SELECT ` + roleColumns + `
		FROM roles r
		INNER JOIN user_roles ur ON r.id = ur.role_id
		WHERE ur.user_id = $1 AND r.is_active = TRUE
		ORDER BY r.id
	`

	var roles []*domain.Role
	if err := r.db.SelectContext(ctx, &roles, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}

	return roles, nil
}

// ReplacePermissions swaps the role's permission set in one transaction
func (r *RoleRepository) ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("failed to clear role permissions: %w", err)
	}

	if len(permissionIDs) > 0 {
		query := `INSERT INTO role_permissions (role_id, permission_id) SELECT $1, UNNEST($2::bigint[])`
		if _, err := tx.ExecContext(ctx, query, roleID, pq.Array(permissionIDs)); err != nil {
			return fmt.Errorf("failed to insert role permissions: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRolePermissions retrieves all permissions attached to a role
func (r *RoleRepository) GetRolePermissions(ctx context.Context, roleID int64) ([]*domain.Permission, error) {
	query := `
		SELECT p.id, p.name, p.description, p.active, p.created_by, p.updated_by, p.created_at, p.updated_at
		FROM permissions p
		INNER JOIN role_permissions rp ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.id
	`

	var permissions []*domain.Permission
	if err := r.db.SelectContext(ctx, &permissions, query, roleID); err != nil {
		return nil, fmt.Errorf("failed to get role permissions: %w", err)
	}

	return permissions, nil
}

var _ repository.RoleRepository = (*RoleRepository)(nil)
