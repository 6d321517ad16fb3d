package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/andressep95/rbac-auth/internal/repository"
)

var userRowColumns = []string{
	"id", "username", "password_hash", "enabled", "account_non_expired", "account_non_locked",
	"credentials_non_expired", "created_by", "updated_by", "created_at", "updated_at",
}

func TestUserCreate_ReturnsID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`(?s)^\s*INSERT\s+INTO\s+users\s*\(.*\)\s*VALUES\s*\(.*\)\s*RETURNING\s+id\s*$`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	now := time.Now()
	user := &domain.User{Username: "alice", PasswordHash: "h", Enabled: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.Equal(t, int64(42), user.ID)
}

func TestUserCreate_DuplicateMapsToConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`(?s)^\s*INSERT\s+INTO\s+users`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	err := repo.Create(context.Background(), &domain.User{Username: "alice"})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestUserFindByUsernameEnabled(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	now := time.Now()
	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s+AND\s+enabled\s*=\s*TRUE$`
	mock.ExpectQuery(q).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(int64(1), "alice", "h", true, true, true, true, int64(1), nil, now, now))

	user, err := repo.FindByUsernameEnabled(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	require.NotNil(t, user.CreatedBy)
	assert.Equal(t, int64(1), *user.CreatedBy)
	assert.Nil(t, user.UpdatedBy)
}

func TestUserFindByUsernameEnabled_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUsernameEnabled(context.Background(), "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserUpdate_NoRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`(?s)^\s*UPDATE\s+users\s+SET\s+username`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &domain.User{ID: 9, Username: "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserGetUsernames_SingleQuery(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*username\s+FROM\s+users\s+WHERE\s+id\s*=\s*ANY\(\$1\)$`).
		WithArgs(pq.Array([]int64{1, 2})).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(int64(1), "root").AddRow(int64(2), "ops"))

	names, err := repo.GetUsernames(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{1: "root", 2: "ops"}, names)
}

func TestUserReplaceRoles_Transaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`^DELETE\s+FROM\s+user_roles\s+WHERE\s+user_id\s*=\s*\$1$`).WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`^INSERT\s+INTO\s+user_roles`).WithArgs(int64(5), pq.Array([]int64{1, 3})).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceRoles(context.Background(), 5, []int64{1, 3}))
}

func TestUserFindByRoleNames_Paged(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`(?s)^\s*SELECT\s+COUNT\(DISTINCT\s+u\.id\)`).
		WithArgs(pq.Array([]string{"ADMIN"})).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`(?s)^\s*SELECT\s+DISTINCT\s+u\.id,\s*u\.username,\s*u\.enabled.*LIMIT\s+\$2\s+OFFSET\s+\$3\s*$`).
		WithArgs(pq.Array([]string{"ADMIN"}), 2, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "enabled"}).AddRow(int64(9), "zed", true))

	users, total, err := repo.FindByRoleNames(context.Background(), []string{"ADMIN"}, domain.PageRequest{Offset: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, users, 1)
	assert.Equal(t, "zed", users[0].Username)
}
