package repository

import (
	"context"

	"github.com/andressep95/rbac-auth/internal/domain"
)

type RoleRepository interface {
	// Role CRUD
	Create(ctx context.Context, role *domain.Role) error
	Update(ctx context.Context, role *domain.Role) error
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	FindActiveByName(ctx context.Context, name string) (*domain.Role, error)
	// FindActiveByNames is a single fetch bounded by len(names).
	FindActiveByNames(ctx context.Context, names []string) ([]*domain.Role, error)

	// Listings
	Search(ctx context.Context, search string, page domain.PageRequest) ([]*domain.Role, int, error)
	List(ctx context.Context, ids []int64, names []string, page domain.PageRequest) ([]*domain.Role, int, error)
	FindByPermissionIDs(ctx context.Context, permissionIDs []int64, page domain.PageRequest) ([]*domain.Role, int, error)
	FindByPermissionNames(ctx context.Context, names []string, page domain.PageRequest) ([]*domain.Role, int, error)

	// User fan-out
	GetUserRoles(ctx context.Context, userID int64) ([]*domain.Role, error)

	// Permissions
	ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
	GetRolePermissions(ctx context.Context, roleID int64) ([]*domain.Permission, error)
}
