package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/andressep95/rbac-auth/internal/repository"
)

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username == user.Username {
			return fmt.Errorf("failed to create user: %w", repository.ErrConflict)
		}
	}

	r.s.nextUserID++
	user.ID = r.s.nextUserID
	cp := *user
	cp.Roles = nil
	r.s.users[user.ID] = &cp
	return nil
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return fmt.Errorf("user not found: %w", repository.ErrNotFound)
	}
	for id, u := range r.s.users {
		if id != user.ID && u.Username == user.Username {
			return fmt.Errorf("failed to update user: %w", repository.ErrConflict)
		}
	}

	user.UpdatedAt = time.Now()
	cp := *user
	cp.Roles = nil
	r.s.users[user.ID] = &cp
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *UserRepository) FindByUsernameEnabled(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username && u.Enabled })
}

func (r *UserRepository) FindByIDEnabled(_ context.Context, id int64) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id && u.Enabled })
}

func (r *UserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", repository.ErrNotFound)
}

func (r *UserRepository) GetUsernames(_ context.Context, ids []int64) (map[int64]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	names := make(map[int64]string, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			names[id] = u.Username
		}
	}
	return names, nil
}

func (r *UserRepository) ListEnabled(_ context.Context, page domain.PageRequest) ([]*domain.User, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var all []*domain.User
	for _, u := range r.s.users {
		if u.Enabled {
			cp := *u
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return window(all, page), len(all), nil
}

func (r *UserRepository) AddRoles(_ context.Context, userID int64, roleIDs []int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	set, ok := r.s.userRoles[userID]
	if !ok {
		set = make(map[int64]struct{})
		r.s.userRoles[userID] = set
	}
	for _, id := range roleIDs {
		set[id] = struct{}{}
	}
	return nil
}

func (r *UserRepository) RemoveRoles(_ context.Context, userID int64, roleNames []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	set := r.s.userRoles[userID]
	for id := range set {
		if role, ok := r.s.roles[id]; ok && containsString(roleNames, role.Name) {
			delete(set, id)
		}
	}
	return nil
}

func (r *UserRepository) ReplaceRoles(_ context.Context, userID int64, roleIDs []int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	set := make(map[int64]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		set[id] = struct{}{}
	}
	r.s.userRoles[userID] = set
	return nil
}

func (r *UserRepository) FindByRoleNames(_ context.Context, roleNames []string, page domain.PageRequest) ([]*domain.UserSummary, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var all []*domain.UserSummary
	for _, u := range r.s.users {
		if !u.Enabled {
			continue
		}
		for id := range r.s.userRoles[u.ID] {
			if role, ok := r.s.roles[id]; ok && containsString(roleNames, role.Name) {
				all = append(all, &domain.UserSummary{ID: u.ID, Username: u.Username, Enabled: u.Enabled})
				break
			}
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return window(all, page), len(all), nil
}
