package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/andressep95/rbac-auth/internal/repository"
)

type AddPermissionRequest struct {
	Permission  string `json:"permission" validate:"required,max=100"`
	Description string `json:"description" validate:"max=255"`
}

// UpdatePermissionRequest leaves nil fields untouched.
type UpdatePermissionRequest struct {
	Permission  *string `json:"permission" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

type PermissionService struct {
	permissions repository.PermissionRepository
	users       repository.UserRepository
	audit       Auditor
}

func NewPermissionService(permissions repository.PermissionRepository, users repository.UserRepository, audit Auditor) *PermissionService {
	return &PermissionService{
		permissions: permissions,
		users:       users,
		audit:       audit,
	}
}

// Add creates an active permission. Names are unique regardless of case.
func (s *PermissionService) Add(ctx context.Context, req AddPermissionRequest, actorID int64) (domain.PermissionView, error) {
	actor, err := findActor(ctx, s.users, actorID)
	if err != nil {
		return domain.PermissionView{}, err
	}

	if _, err := s.permissions.FindActiveByName(ctx, req.Permission); err == nil {
		return domain.PermissionView{}, fmt.Errorf("%w: %s", ErrPermissionExists, req.Permission)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return domain.PermissionView{}, err
	}

	now := time.Now()
	perm := &domain.Permission{
		Name:        req.Permission,
		Description: req.Description,
		Active:      true,
		CreatedBy:   &actor.ID,
		UpdatedBy:   &actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.permissions.Create(ctx, perm); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return domain.PermissionView{}, fmt.Errorf("%w: %s", ErrPermissionExists, req.Permission)
		}
		return domain.PermissionView{}, err
	}

	s.audit.Record(actor.Username, domain.ActionAddPermission)
	return perm.View(), nil
}

// ToggleStatus flips a permission between active and inactive.
func (s *PermissionService) ToggleStatus(ctx context.Context, id int64, actorID int64) (domain.PermissionView, error) {
	perm, actor, err := s.permissionAndActor(ctx, id, actorID)
	if err != nil {
		return domain.PermissionView{}, err
	}

	perm.Active = !perm.Active
	perm.UpdatedBy = &actor.ID
	if err := s.permissions.Update(ctx, perm); err != nil {
		return domain.PermissionView{}, err
	}

	s.audit.Record(actor.Username, domain.ActionChangePermission)
	return perm.View(), nil
}

func (s *PermissionService) Update(ctx context.Context, id int64, req UpdatePermissionRequest, actorID int64) (domain.PermissionView, error) {
	perm, actor, err := s.permissionAndActor(ctx, id, actorID)
	if err != nil {
		return domain.PermissionView{}, err
	}

	if req.Permission != nil {
		perm.Name = *req.Permission
	}
	if req.Description != nil {
		perm.Description = *req.Description
	}
	perm.UpdatedBy = &actor.ID

	if err := s.permissions.Update(ctx, perm); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return domain.PermissionView{}, fmt.Errorf("%w: %s", ErrPermissionExists, perm.Name)
		}
		return domain.PermissionView{}, err
	}

	s.audit.Record(actor.Username, domain.ActionUpdatePermission)
	return perm.View(), nil
}

func (s *PermissionService) List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.PermissionView], error) {
	perms, total, err := s.permissions.ListActive(ctx, page)
	if err != nil {
		return domain.Page[domain.PermissionView]{}, err
	}
	return domain.NewPage(permissionViews(perms), total, page), nil
}

// ListByRole lists the active permissions granted by the named role.
func (s *PermissionService) ListByRole(ctx context.Context, roleName string, page domain.PageRequest) (domain.Page[domain.PermissionView], error) {
	perms, total, err := s.permissions.ListActiveByRole(ctx, roleName, page)
	if err != nil {
		return domain.Page[domain.PermissionView]{}, err
	}
	return domain.NewPage(permissionViews(perms), total, page), nil
}

func (s *PermissionService) permissionAndActor(ctx context.Context, id, actorID int64) (*domain.Permission, *domain.User, error) {
	actor, err := findActor(ctx, s.users, actorID)
	if err != nil {
		return nil, nil, err
	}

	perm, err := s.permissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %d", ErrPermissionNotFound, id)
		}
		return nil, nil, err
	}
	return perm, actor, nil
}

func permissionViews(perms []*domain.Permission) []domain.PermissionView {
	views := make([]domain.PermissionView, 0, len(perms))
	for _, p := range perms {
		views = append(views, p.View())
	}
	return views
}
