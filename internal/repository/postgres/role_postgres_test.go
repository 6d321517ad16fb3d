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

var roleRowColumns = []string{"id", "name", "description", "is_active", "created_by", "updated_by", "created_at", "updated_at"}

func TestRoleFindActiveByNames_BoundedSingleFetch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoleRepository(db)

	now := time.Now()
	names := []string{"ADMIN", "USER"}
	mock.ExpectQuery(`(?s)^\s*SELECT\s+r\.id,.*FROM\s+roles\s+r\s+WHERE\s+r\.is_active\s*=\s*TRUE\s+AND\s+r\.name\s*=\s*ANY\(\$1\)\s+ORDER\s+BY\s+r\.id\s+LIMIT\s+\$2\s*$`).
		WithArgs(pq.Array(names), 2).
		WillReturnRows(sqlmock.NewRows(roleRowColumns).
			AddRow(int64(1), "ADMIN", "", true, nil, nil, now, now).
			AddRow(int64(2), "USER", "", true, nil, nil, now, now))

	roles, err := repo.FindActiveByNames(context.Background(), names)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "USER", roles[1].Name)
}

func TestRoleFindActiveByNames_EmptySkipsQuery(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewRoleRepository(db)

	roles, err := repo.FindActiveByNames(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestRoleGetByName_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoleRepository(db)

	mock.ExpectQuery(`(?s)^SELECT\s+r\.id,.*FROM\s+roles\s+r\s+WHERE\s+r\.name\s*=\s*\$1$`).
		WithArgs("GHOST").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByName(context.Background(), "GHOST")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRoleList_AttachesPermissions(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoleRepository(db)

	now := time.Now()
	mock.ExpectQuery(`(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+roles\s+r\s+WHERE\s+r\.is_active`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`(?s)^SELECT\s+r\.id,.*FROM\s+roles\s+r\s+WHERE\s+r\.is_active.*LIMIT\s+\$3\s+OFFSET\s+\$4$`).
		WillReturnRows(sqlmock.NewRows(roleRowColumns).AddRow(int64(4), "AUDITOR", "reads", true, nil, nil, now, now))
	mock.ExpectQuery(`(?s)^\s*SELECT\s+rp\.role_id,.*WHERE\s+rp\.role_id\s*=\s*ANY\(\$1\)`).
		WithArgs(pq.Array([]int64{4})).
		WillReturnRows(sqlmock.NewRows([]string{"role_id", "id", "name", "description", "active", "created_by", "updated_by", "created_at", "updated_at"}).
			AddRow(int64(4), int64(10), "READ_AUDIT", "", true, nil, nil, now, now))

	roles, total, err := repo.List(context.Background(), []int64{4}, nil, domain.NewPageRequest(0, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, roles, 1)
	require.Len(t, roles[0].Permissions, 1)
	assert.Equal(t, "READ_AUDIT", roles[0].Permissions[0].Name)
}

func TestRoleReplacePermissions_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`^DELETE\s+FROM\s+role_permissions`).WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^INSERT\s+INTO\s+role_permissions`).WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.ReplacePermissions(context.Background(), 2, []int64{7})
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}
