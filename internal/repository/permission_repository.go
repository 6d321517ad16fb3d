package repository

import (
	"context"

	"github.com/andressep95/rbac-auth/internal/domain"
)

type PermissionRepository interface {
	Create(ctx context.Context, permission *domain.Permission) error
	Update(ctx context.Context, permission *domain.Permission) error
	GetByID(ctx context.Context, id int64) (*domain.Permission, error)
	// FindActiveByName matches case-insensitively.
	FindActiveByName(ctx context.Context, name string) (*domain.Permission, error)
	FindActiveByNames(ctx context.Context, names []string) ([]*domain.Permission, error)
	ListActive(ctx context.Context, page domain.PageRequest) ([]*domain.Permission, int, error)
	ListActiveByRole(ctx context.Context, roleName string, page domain.PageRequest) ([]*domain.Permission, int, error)
	// GetUserPermissionNames returns the distinct active permission names
	// granted through the user's active roles.
	GetUserPermissionNames(ctx context.Context, userID int64) ([]string, error)
}
