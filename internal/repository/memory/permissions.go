package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/andressep95/rbac-auth/internal/repository"
)

type PermissionRepository struct {
	s *Store
}

func (r *PermissionRepository) Create(_ context.Context, permission *domain.Permission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.permissions {
		if p.Name == permission.Name {
			return fmt.Errorf("failed to create permission: %w", repository.ErrConflict)
		}
	}

	r.s.nextPermissionID++
	permission.ID = r.s.nextPermissionID
	cp := *permission
	r.s.permissions[permission.ID] = &cp
	return nil
}

func (r *PermissionRepository) Update(_ context.Context, permission *domain.Permission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.permissions[permission.ID]; !ok {
		return fmt.Errorf("permission not found: %w", repository.ErrNotFound)
	}
	for id, p := range r.s.permissions {
		if id != permission.ID && p.Name == permission.Name {
			return fmt.Errorf("failed to update permission: %w", repository.ErrConflict)
		}
	}

	permission.UpdatedAt = time.Now()
	cp := *permission
	r.s.permissions[permission.ID] = &cp
	return nil
}

func (r *PermissionRepository) GetByID(_ context.Context, id int64) (*domain.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.permissions[id]
	if !ok {
		return nil, fmt.Errorf("permission not found: %w", repository.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (r *PermissionRepository) FindActiveByName(_ context.Context, name string) (*domain.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.permissions {
		if p.Active && strings.EqualFold(p.Name, name) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("permission not found: %w", repository.ErrNotFound)
}

func (r *PermissionRepository) FindActiveByNames(_ context.Context, names []string) ([]*domain.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	perms := r.collect(func(p *domain.Permission) bool { return p.Active && containsString(names, p.Name) })
	sort.Slice(perms, func(i, j int) bool { return perms[i].ID < perms[j].ID })
	return perms, nil
}

func (r *PermissionRepository) ListActive(_ context.Context, page domain.PageRequest) ([]*domain.Permission, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	perms := r.collect(func(p *domain.Permission) bool { return p.Active })
	sort.Slice(perms, func(i, j int) bool { return perms[i].ID > perms[j].ID })
	return window(perms, page), len(perms), nil
}

func (r *PermissionRepository) ListActiveByRole(_ context.Context, roleName string, page domain.PageRequest) ([]*domain.Permission, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	granted := make(map[int64]struct{})
	for id, role := range r.s.roles {
		if role.Name == roleName {
			granted = r.s.rolePerms[id]
			break
		}
	}

	perms := r.collect(func(p *domain.Permission) bool {
		_, ok := granted[p.ID]
		return ok && p.Active
	})
	sort.Slice(perms, func(i, j int) bool { return perms[i].ID > perms[j].ID })
	return window(perms, page), len(perms), nil
}

func (r *PermissionRepository) GetUserPermissionNames(_ context.Context, userID int64) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := make(map[string]struct{})
	for roleID := range r.s.userRoles[userID] {
		role, ok := r.s.roles[roleID]
		if !ok || !role.IsActive {
			continue
		}
		for permID := range r.s.rolePerms[roleID] {
			if p, ok := r.s.permissions[permID]; ok && p.Active {
				seen[p.Name] = struct{}{}
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (r *PermissionRepository) collect(match func(*domain.Permission) bool) []*domain.Permission {
	perms := []*domain.Permission{}
	for _, p := range r.s.permissions {
		if match(p) {
			cp := *p
			perms = append(perms, &cp)
		}
	}
	return perms
}
