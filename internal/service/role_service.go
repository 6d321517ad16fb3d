package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/andressep95/rbac-auth/internal/repository"
)

type CreateRoleRequest struct {
	Name        string   `json:"name" validate:"required,max=50"`
	Description string   `json:"description" validate:"max=255"`
	Permissions []string `json:"permissions"`
}

type PermissionNamesRequest struct {
	Permissions []string `json:"permissions"`
}

type RoleService struct {
	roles       repository.RoleRepository
	permissions repository.PermissionRepository
	users       repository.UserRepository
	audit       Auditor
}

func NewRoleService(
	roles repository.RoleRepository,
	permissions repository.PermissionRepository,
	users repository.UserRepository,
	audit Auditor,
) *RoleService {
	return &RoleService{
		roles:       roles,
		permissions: permissions,
		users:       users,
		audit:       audit,
	}
}

// Create adds an active role granting the named active permissions.
func (s *RoleService) Create(ctx context.Context, req CreateRoleRequest, actorID int64) (domain.RoleView, error) {
	actor, err := findActor(ctx, s.users, actorID)
	if err != nil {
		return domain.RoleView{}, err
	}

	if _, err := s.roles.GetByName(ctx, req.Name); err == nil {
		return domain.RoleView{}, fmt.Errorf("%w: role %s", ErrEntityExists, req.Name)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return domain.RoleView{}, err
	}

	perms, err := s.permissions.FindActiveByNames(ctx, req.Permissions)
	if err != nil {
		return domain.RoleView{}, err
	}

	now := time.Now()
	role := &domain.Role{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
		CreatedBy:   &actor.ID,
		UpdatedBy:   &actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.roles.Create(ctx, role); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return domain.RoleView{}, fmt.Errorf("%w: role %s", ErrEntityExists, req.Name)
		}
		return domain.RoleView{}, err
	}

	if err := s.roles.ReplacePermissions(ctx, role.ID, permissionIDs(perms)); err != nil {
		return domain.RoleView{}, err
	}
	role.Permissions = perms

	s.audit.Record(actor.Username, domain.ActionAddRole)
	return role.View(), nil
}

// ReplacePermissions swaps the permission set of an active role.
func (s *RoleService) ReplacePermissions(ctx context.Context, roleName string, names []string, actorID int64) (domain.RoleView, error) {
	actor, err := findActor(ctx, s.users, actorID)
	if err != nil {
		return domain.RoleView{}, err
	}

	role, err := s.roles.FindActiveByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.RoleView{}, fmt.Errorf("%w: role %s", ErrEntityNotFound, roleName)
		}
		return domain.RoleView{}, err
	}

	perms, err := s.permissions.FindActiveByNames(ctx, names)
	if err != nil {
		return domain.RoleView{}, err
	}
	if err := s.roles.ReplacePermissions(ctx, role.ID, permissionIDs(perms)); err != nil {
		return domain.RoleView{}, err
	}

	role.UpdatedBy = &actor.ID
	if err := s.roles.Update(ctx, role); err != nil {
		return domain.RoleView{}, err
	}
	role.Permissions = perms

	s.audit.Record(actor.Username, domain.ActionAddPermissionToRole)
	return role.View(), nil
}

// ToggleStatus flips a role between active and inactive. Inactive roles stop
// contributing to newly issued claims.
func (s *RoleService) ToggleStatus(ctx context.Context, roleName string, actorID int64) (domain.RoleView, error) {
	actor, err := findActor(ctx, s.users, actorID)
	if err != nil {
		return domain.RoleView{}, err
	}

	role, err := s.roles.GetByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.RoleView{}, fmt.Errorf("%w: role %s", ErrEntityNotFound, roleName)
		}
		return domain.RoleView{}, err
	}

	role.IsActive = !role.IsActive
	role.UpdatedBy = &actor.ID
	if err := s.roles.Update(ctx, role); err != nil {
		return domain.RoleView{}, err
	}

	perms, err := s.roles.GetRolePermissions(ctx, role.ID)
	if err != nil {
		return domain.RoleView{}, err
	}
	role.Permissions = perms

	s.audit.Record(actor.Username, domain.ActionChangeRoleStatus)
	return role.View(), nil
}

func (s *RoleService) UsersWithRoles(ctx context.Context, roleNames []string, page domain.PageRequest) (domain.Page[*domain.UserSummary], error) {
	users, total, err := s.users.FindByRoleNames(ctx, roleNames, page)
	if err != nil {
		return domain.Page[*domain.UserSummary]{}, err
	}
	return domain.NewPage(users, total, page), nil
}

// Search matches the term against role names and the names of their permissions.
func (s *RoleService) Search(ctx context.Context, search string, page domain.PageRequest) (domain.Page[domain.RoleView], error) {
	roles, total, err := s.roles.Search(ctx, search, page)
	if err != nil {
		return domain.Page[domain.RoleView]{}, err
	}
	return domain.NewPage(roleViews(roles), total, page), nil
}

// List returns active roles matching any of the ids or names.
func (s *RoleService) List(ctx context.Context, ids []int64, names []string, page domain.PageRequest) (domain.Page[domain.RoleView], error) {
	roles, total, err := s.roles.List(ctx, ids, names, page)
	if err != nil {
		return domain.Page[domain.RoleView]{}, err
	}
	return domain.NewPage(roleViews(roles), total, page), nil
}

// FindByPermissions lists roles granting any of the given permissions. Ids
// take precedence over names when both are supplied.
func (s *RoleService) FindByPermissions(ctx context.Context, ids []int64, names []string, page domain.PageRequest) (domain.Page[domain.RoleView], error) {
	var (
		roles []*domain.Role
		total int
		err   error
	)
	switch {
	case len(ids) > 0:
		roles, total, err = s.roles.FindByPermissionIDs(ctx, ids, page)
	case len(names) > 0:
		roles, total, err = s.roles.FindByPermissionNames(ctx, names, page)
	default:
		return domain.Page[domain.RoleView]{}, ErrEmptyFilters
	}
	if err != nil {
		return domain.Page[domain.RoleView]{}, err
	}
	return domain.NewPage(roleViews(roles), total, page), nil
}

func roleViews(roles []*domain.Role) []domain.RoleView {
	views := make([]domain.RoleView, 0, len(roles))
	for _, r := range roles {
		views = append(views, r.View())
	}
	return views
}

func permissionIDs(perms []*domain.Permission) []int64 {
	ids := make([]int64, 0, len(perms))
	for _, p := range perms {
		ids = append(ids, p.ID)
	}
	return ids
}
