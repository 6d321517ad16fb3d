package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andressep95/rbac-auth/internal/domain"
)

func TestSelfRegisterBootstrapsCreator(t *testing.T) {
	f := newFixture(t)
	f.seedRole(t, "ADMIN", true)
	f.seedRole(t, "LEGACY", false)

	user := f.bootstrap(t, "root", "ADMIN", "LEGACY", "MISSING")

	assert.Equal(t, "root", user.Username)
	assert.Equal(t, "root", user.CreatedBy)
	assert.Equal(t, []string{"ADMIN"}, user.Roles)
	assert.True(t, user.Enabled)
	assert.True(t, user.CredentialsNonExpired)
	assert.Equal(t, domain.AuditLog{Username: "root", Action: domain.ActionSelfRegister}, f.audit.last())

	stored, err := f.store.Users().GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CreatedBy)
	assert.Equal(t, user.ID, *stored.CreatedBy)
	assert.Equal(t, "plain:secret123", stored.PasswordHash)
}

func TestCreateWithoutCreatorNeedsBootstrap(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.create(context.Background(), RegisterRequest{Username: "ghost", Password: "secret123"}, nil, false)
	assert.ErrorIs(t, err, ErrCreatorRequired)
}

func TestRegisterRecordsCreator(t *testing.T) {
	f := newFixture(t)
	admin := f.bootstrap(t, "admin")

	user, err := f.users.Register(context.Background(), RegisterRequest{Username: "alice", Password: "secret123"}, admin.ID)
	require.NoError(t, err)

	assert.Equal(t, "admin", user.CreatedBy)
	assert.Empty(t, user.Roles)
	assert.Equal(t, domain.AuditLog{Username: "alice", Action: domain.ActionRegister}, f.audit.last())
}

func TestRegisterRejectsUnknownOrDisabledCreator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Register(ctx, RegisterRequest{Username: "alice", Password: "secret123"}, 99)
	assert.ErrorIs(t, err, ErrEntityNotFound)

	admin := f.bootstrap(t, "admin")
	other := f.bootstrap(t, "other")
	require.NoError(t, f.users.SetEnabled(ctx, admin.ID, false, other.ID))

	_, err = f.users.Register(ctx, RegisterRequest{Username: "alice", Password: "secret123"}, admin.ID)
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	f := newFixture(t)
	admin := f.bootstrap(t, "admin")

	_, err := f.users.Register(context.Background(), RegisterRequest{Username: "admin", Password: "secret123"}, admin.ID)
	assert.ErrorIs(t, err, ErrEntityExists)
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedRole(t, "ADMIN", true)
	f.seedRole(t, "AUDITOR", true)

	admin := f.bootstrap(t, "admin")
	alice := f.bootstrap(t, "alice", "ADMIN")

	name := "alice2"
	password := "changed99"
	updated, err := f.users.Update(ctx, "alice", UpdateUserRequest{
		Username: &name,
		Password: &password,
		Roles:    []string{"AUDITOR"},
	}, admin.ID)
	require.NoError(t, err)

	assert.Equal(t, alice.ID, updated.ID)
	assert.Equal(t, "alice2", updated.Username)
	assert.Equal(t, []string{"AUDITOR"}, updated.Roles)
	assert.Equal(t, "admin", updated.UpdatedBy)
	assert.Equal(t, "alice2", updated.CreatedBy)
	assert.Equal(t, domain.AuditLog{Username: "alice2", Action: domain.ActionUpdate}, f.audit.last())

	stored, err := f.store.Users().GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "plain:changed99", stored.PasswordHash)
}

func TestUpdateKeepsRolesWhenOmitted(t *testing.T) {
	f := newFixture(t)
	f.seedRole(t, "ADMIN", true)
	admin := f.bootstrap(t, "admin", "ADMIN")

	updated, err := f.users.Update(context.Background(), "admin", UpdateUserRequest{}, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ADMIN"}, updated.Roles)
}

func TestUpdateErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.bootstrap(t, "admin")
	f.bootstrap(t, "bob")

	_, err := f.users.Update(ctx, "nobody", UpdateUserRequest{}, admin.ID)
	assert.ErrorIs(t, err, ErrEntityNotFound)

	taken := "bob"
	_, err = f.users.Update(ctx, "admin", UpdateUserRequest{Username: &taken}, admin.ID)
	assert.ErrorIs(t, err, ErrEntityExists)
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.bootstrap(t, "admin")
	bob := f.bootstrap(t, "bob")

	details, err := f.users.ResetPassword(ctx, ResetPasswordRequest{Username: "bob", Password: "newpass12"}, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", details.UpdatedBy)
	assert.Equal(t, domain.AuditLog{Username: "bob", Action: domain.ActionResetPassword}, f.audit.last())

	stored, err := f.store.Users().GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "plain:newpass12", stored.PasswordHash)
}

func TestAssignAndRemoveRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedRole(t, "ADMIN", true)
	f.seedRole(t, "AUDITOR", true)
	f.seedRole(t, "RETIRED", false)

	admin := f.bootstrap(t, "admin")
	bob := f.bootstrap(t, "bob")

	details, err := f.users.AssignRoles(ctx, bob.ID, []string{"ADMIN", "AUDITOR", "RETIRED"}, admin.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ADMIN", "AUDITOR"}, details.Roles)
	assert.Equal(t, domain.AuditLog{Username: "admin", Action: domain.ActionAssignRoles}, f.audit.last())

	details, err = f.users.RemoveRoles(ctx, bob.ID, []string{"ADMIN"}, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"AUDITOR"}, details.Roles)
	assert.Equal(t, domain.AuditLog{Username: "admin", Action: domain.ActionRemoveRoles}, f.audit.last())

	_, err = f.users.AssignRoles(ctx, 404, []string{"ADMIN"}, admin.ID)
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestSetEnabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.bootstrap(t, "admin")
	bob := f.bootstrap(t, "bob")

	require.NoError(t, f.users.SetEnabled(ctx, bob.ID, false, admin.ID))
	assert.Equal(t, domain.AuditLog{Username: "admin", Action: domain.ActionDeactivateUser}, f.audit.last())

	_, err := f.users.DetailsByUsername(ctx, "bob")
	assert.ErrorIs(t, err, ErrEntityNotFound)

	require.NoError(t, f.users.SetEnabled(ctx, bob.ID, true, admin.ID))
	assert.Equal(t, domain.AuditLog{Username: "admin", Action: domain.ActionActivateUser}, f.audit.last())

	details, err := f.users.DetailsByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, details.Enabled)
}
