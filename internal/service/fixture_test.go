package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/andressep95/rbac-auth/internal/repository/memory"
	"github.com/andressep95/rbac-auth/pkg/loginguard"
)

// plainHasher keeps service tests fast; digests are not meant to be secret here.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func (plainHasher) Verify(password, digest string) bool { return digest == "plain:"+password }

type recordingAuditor struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

func (a *recordingAuditor) Record(actor string, action domain.AuditAction) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, domain.AuditLog{Username: actor, Action: action})
}

func (a *recordingAuditor) last() domain.AuditLog {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.entries) == 0 {
		return domain.AuditLog{}
	}
	return a.entries[len(a.entries)-1]
}

type fixture struct {
	store       *memory.Store
	audit       *recordingAuditor
	users       *UserService
	roles       *RoleService
	permissions *PermissionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	audit := &recordingAuditor{}
	return &fixture{
		store:       store,
		audit:       audit,
		users:       NewUserService(store.Users(), store.Roles(), plainHasher{}, loginguard.New(nil, 0, 0), audit),
		roles:       NewRoleService(store.Roles(), store.Permissions(), store.Users(), audit),
		permissions: NewPermissionService(store.Permissions(), store.Users(), audit),
	}
}

// seedPermission writes a permission straight to the store.
func (f *fixture) seedPermission(t *testing.T, name string, active bool) *domain.Permission {
	t.Helper()
	p := &domain.Permission{Name: name, Description: name + " access", Active: active, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, f.store.Permissions().Create(context.Background(), p))
	return p
}

// seedRole writes a role and its permission set straight to the store.
func (f *fixture) seedRole(t *testing.T, name string, active bool, perms ...*domain.Permission) *domain.Role {
	t.Helper()
	ctx := context.Background()
	r := &domain.Role{Name: name, IsActive: active, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, f.store.Roles().Create(ctx, r))
	require.NoError(t, f.store.Roles().ReplacePermissions(ctx, r.ID, permissionIDs(perms)))
	return r
}

// bootstrap self-registers a user holding the named roles.
func (f *fixture) bootstrap(t *testing.T, username string, roles ...string) *domain.UserDetails {
	t.Helper()
	user, err := f.users.SelfRegister(context.Background(), RegisterRequest{
		Username: username,
		Password: "secret123",
		Roles:    roles,
	})
	require.NoError(t, err)
	return user
}
