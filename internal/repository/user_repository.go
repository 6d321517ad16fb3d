package repository

import (
	"context"

	"github.com/andressep95/rbac-auth/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	FindByUsernameEnabled(ctx context.Context, username string) (*domain.User, error)
	FindByIDEnabled(ctx context.Context, id int64) (*domain.User, error)
	// GetUsernames resolves ids to usernames in one query; unknown ids are absent.
	GetUsernames(ctx context.Context, ids []int64) (map[int64]string, error)
	ListEnabled(ctx context.Context, page domain.PageRequest) ([]*domain.User, int, error)

	// User-Role assignments
	AddRoles(ctx context.Context, userID int64, roleIDs []int64) error
	RemoveRoles(ctx context.Context, userID int64, roleNames []string) error
	ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error
	FindByRoleNames(ctx context.Context, roleNames []string, page domain.PageRequest) ([]*domain.UserSummary, int, error)
}
