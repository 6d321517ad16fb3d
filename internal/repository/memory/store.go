// Package memory holds map-backed repositories used by tests and by the
// DB_DRIVER=memory development mode. All views share one Store and one lock.
package memory

import (
	"sort"
	"sync"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/andressep95/rbac-auth/internal/repository"
)

type Store struct {
	mu sync.RWMutex

	nextUserID, nextRoleID, nextPermissionID, nextRefreshID, nextAuditID int64

	users       map[int64]*domain.User
	roles       map[int64]*domain.Role
	permissions map[int64]*domain.Permission
	userRoles   map[int64]map[int64]struct{}
	rolePerms   map[int64]map[int64]struct{}
	refresh     map[int64]*domain.RefreshToken
	audit       []*domain.AuditLog
}

func NewStore() *Store {
	return &Store{
		users:       make(map[int64]*domain.User),
		roles:       make(map[int64]*domain.Role),
		permissions: make(map[int64]*domain.Permission),
		userRoles:   make(map[int64]map[int64]struct{}),
		rolePerms:   make(map[int64]map[int64]struct{}),
		refresh:     make(map[int64]*domain.RefreshToken),
	}
}

func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

func (s *Store) Roles() *RoleRepository { return &RoleRepository{s: s} }

func (s *Store) Permissions() *PermissionRepository { return &PermissionRepository{s: s} }

func (s *Store) RefreshTokens() *RefreshTokenRepository { return &RefreshTokenRepository{s: s} }

func (s *Store) AuditLogs() *AuditLogRepository { return &AuditLogRepository{s: s} }

var (
	_ repository.UserRepository         = (*UserRepository)(nil)
	_ repository.RoleRepository         = (*RoleRepository)(nil)
	_ repository.PermissionRepository   = (*PermissionRepository)(nil)
	_ repository.RefreshTokenRepository = (*RefreshTokenRepository)(nil)
	_ repository.AuditLogRepository     = (*AuditLogRepository)(nil)
)

// window cuts one page out of an already ordered slice.
func window[T any](items []T, page domain.PageRequest) []T {
	start := page.Skip()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func sortedKeys(set map[int64]struct{}) []int64 {
	keys := make([]int64, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsID(list []int64, v int64) bool {
	for _, id := range list {
		if id == v {
			return true
		}
	}
	return false
}
