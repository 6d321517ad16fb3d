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

type RoleRepository struct {
	s *Store
}

func (r *RoleRepository) Create(_ context.Context, role *domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.roles {
		if existing.Name == role.Name {
			return fmt.Errorf("failed to create role: %w", repository.ErrConflict)
		}
	}

	r.s.nextRoleID++
	role.ID = r.s.nextRoleID
	cp := *role
	cp.Permissions = nil
	r.s.roles[role.ID] = &cp
	return nil
}

func (r *RoleRepository) Update(_ context.Context, role *domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.roles[role.ID]; !ok {
		return fmt.Errorf("role not found: %w", repository.ErrNotFound)
	}
	for id, existing := range r.s.roles {
		if id != role.ID && existing.Name == role.Name {
			return fmt.Errorf("failed to update role: %w", repository.ErrConflict)
		}
	}

	role.UpdatedAt = time.Now()
	cp := *role
	cp.Permissions = nil
	r.s.roles[role.ID] = &cp
	return nil
}

func (r *RoleRepository) GetByName(_ context.Context, name string) (*domain.Role, error) {
	return r.find(func(role *domain.Role) bool { return role.Name == name })
}

func (r *RoleRepository) FindActiveByName(_ context.Context, name string) (*domain.Role, error) {
	return r.find(func(role *domain.Role) bool { return role.Name == name && role.IsActive })
}

func (r *RoleRepository) find(match func(*domain.Role) bool) (*domain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, role := range r.s.roles {
		if match(role) {
			cp := *role
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("role not found: %w", repository.ErrNotFound)
}

func (r *RoleRepository) FindActiveByNames(_ context.Context, names []string) ([]*domain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	roles := r.collect(func(role *domain.Role) bool { return role.IsActive && containsString(names, role.Name) })
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}

func (r *RoleRepository) Search(_ context.Context, search string, page domain.PageRequest) ([]*domain.Role, int, error) {
	term := strings.ToLower(search)
	return r.page(page, func(role *domain.Role) bool {
		if term == "" || strings.Contains(strings.ToLower(role.Name), term) {
			return true
		}
		for id := range r.s.rolePerms[role.ID] {
			if p, ok := r.s.permissions[id]; ok && strings.Contains(strings.ToLower(p.Name), term) {
				return true
			}
		}
		return false
	})
}

func (r *RoleRepository) List(_ context.Context, ids []int64, names []string, page domain.PageRequest) ([]*domain.Role, int, error) {
	return r.page(page, func(role *domain.Role) bool {
		return role.IsActive && (containsID(ids, role.ID) || containsString(names, role.Name))
	})
}

func (r *RoleRepository) FindByPermissionIDs(_ context.Context, permissionIDs []int64, page domain.PageRequest) ([]*domain.Role, int, error) {
	return r.page(page, func(role *domain.Role) bool {
		for id := range r.s.rolePerms[role.ID] {
			if containsID(permissionIDs, id) {
				return true
			}
		}
		return false
	})
}

func (r *RoleRepository) FindByPermissionNames(_ context.Context, names []string, page domain.PageRequest) ([]*domain.Role, int, error) {
	return r.page(page, func(role *domain.Role) bool {
		for id := range r.s.rolePerms[role.ID] {
			if p, ok := r.s.permissions[id]; ok && containsString(names, p.Name) {
				return true
			}
		}
		return false
	})
}

// page orders newest first and attaches permissions; match runs under the read lock.
func (r *RoleRepository) page(page domain.PageRequest, match func(*domain.Role) bool) ([]*domain.Role, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	roles := r.collect(match)
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID > roles[j].ID })
	out := window(roles, page)
	for _, role := range out {
		role.Permissions = r.permissionsOf(role.ID)
	}
	return out, len(roles), nil
}

func (r *RoleRepository) collect(match func(*domain.Role) bool) []*domain.Role {
	roles := []*domain.Role{}
	for _, role := range r.s.roles {
		if match(role) {
			cp := *role
			roles = append(roles, &cp)
		}
	}
	return roles
}

func (r *RoleRepository) permissionsOf(roleID int64) []*domain.Permission {
	perms := []*domain.Permission{}
	for _, id := range sortedKeys(r.s.rolePerms[roleID]) {
		if p, ok := r.s.permissions[id]; ok {
			cp := *p
			perms = append(perms, &cp)
		}
	}
	return perms
}

func (r *RoleRepository) GetUserRoles(_ context.Context, userID int64) ([]*domain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	roles := []*domain.Role{}
	for _, id := range sortedKeys(r.s.userRoles[userID]) {
		if role, ok := r.s.roles[id]; ok && role.IsActive {
			cp := *role
			roles = append(roles, &cp)
		}
	}
	return roles, nil
}

func (r *RoleRepository) ReplacePermissions(_ context.Context, roleID int64, permissionIDs []int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	set := make(map[int64]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		set[id] = struct{}{}
	}
	r.s.rolePerms[roleID] = set
	return nil
}

func (r *RoleRepository) GetRolePermissions(_ context.Context, roleID int64) ([]*domain.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.permissionsOf(roleID), nil
}
