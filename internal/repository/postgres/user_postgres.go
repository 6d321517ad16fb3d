package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/andressep95/rbac-auth/internal/repository"
)

const userColumns = `id, username, password_hash, enabled, account_non_expired, account_non_locked,
			   credentials_non_expired, created_by, updated_by, created_at, updated_at`

type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user and fills in the generated id
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (
			username, password_hash, enabled, account_non_expired, account_non_locked,
			credentials_non_expired, created_by, updated_by, created_at, updated_at
		) VALUES (
			:username, :password_hash, :enabled, :account_non_expired, :account_non_locked,
			:credentials_non_expired, :created_by, :updated_by, :created_at, :updated_at
		)
		RETURNING id`

	rows, err := r.db.NamedQueryContext(ctx, query, user)
	if err != nil {
		return wrapWriteErr("create user", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&user.ID); err != nil {
			return fmt.Errorf("failed to scan user id: %w", err)
		}
	}

	return rows.Err()
}

// Update updates an existing user in the database
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users
		SET username = :username,
			password_hash = :password_hash,
			enabled = :enabled,
			account_non_expired = :account_non_expired,
			account_non_locked = :account_non_locked,
			credentials_non_expired = :credentials_non_expired,
			created_by = :created_by,
			updated_by = :updated_by,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return wrapWriteErr("update user", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("user not found: %w", repository.ErrNotFound)
	}

	return nil
}

// GetByID retrieves a user by id regardless of its enabled flag
func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, "get user by id", query, id)
}

// FindByUsernameEnabled retrieves an enabled user by username
func (r *userRepository) FindByUsernameEnabled(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 AND enabled = TRUE`
	return r.getOne(ctx, "get user by username", query, username)
}

// FindByIDEnabled retrieves an enabled user by id
func (r *userRepository) FindByIDEnabled(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND enabled = TRUE`
	return r.getOne(ctx, "get enabled user by id", query, id)
}

func (r *userRepository) getOne(ctx context.Context, op, query string, arg interface{}) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user, query, arg)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}

	return &user, nil
}

// GetUsernames resolves a batch of user ids to usernames
func (r *userRepository) GetUsernames(ctx context.Context, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	query := `SELECT id, username FROM users WHERE id = ANY($1)`

	var rows []domain.UserSummary
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get usernames: %w", err)
	}

	for _, row := range rows {
		names[row.ID] = row.Username
	}

	return names, nil
}

// ListEnabled retrieves one page of enabled users
func (r *userRepository) ListEnabled(ctx context.Context, page domain.PageRequest) ([]*domain.User, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users WHERE enabled = TRUE`); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE enabled = TRUE ORDER BY id LIMIT $1 OFFSET $2`

	var users []*domain.User
	if err := r.db.SelectContext(ctx, &users, query, page.Limit, page.Skip()); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}

// AddRoles assigns roles to a user, ignoring ones already held
func (r *userRepository) AddRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	if len(roleIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, UNNEST($2::bigint[])
		ON CONFLICT (user_id, role_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, userID, pq.Array(roleIDs)); err != nil {
		return fmt.Errorf("failed to assign roles to user: %w", err)
	}
	return nil
}

// RemoveRoles revokes the named roles from a user
func (r *userRepository) RemoveRoles(ctx context.Context, userID int64, roleNames []string) error {
	if len(roleNames) == 0 {
		return nil
	}

	query := `
		DELETE FROM user_roles
		WHERE user_id = $1
		  AND role_id IN (SELECT id FROM roles WHERE name = ANY($2))`

	if _, err := r.db.ExecContext(ctx, query, userID, pq.Array(roleNames)); err != nil {
		return fmt.Errorf("failed to remove roles from user: %w", err)
	}
	return nil
}

// ReplaceRoles swaps the user's role set in one transaction
func (r *userRepository) ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear user roles: %w", err)
	}

	if len(roleIDs) > 0 {
		query := `INSERT INTO user_roles (user_id, role_id) SELECT $1, UNNEST($2::bigint[])`
		if _, err := tx.ExecContext(ctx, query, userID, pq.Array(roleIDs)); err != nil {
			return fmt.Errorf("failed to insert user roles: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// FindByRoleNames retrieves enabled users holding any of the named roles
func (r *userRepository) FindByRoleNames(ctx context.Context, roleNames []string, page domain.PageRequest) ([]*domain.UserSummary, int, error) {
	countQuery := `
		SELECT COUNT(DISTINCT u.id)
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		JOIN roles r ON r.id = ur.role_id
		WHERE u.enabled = TRUE AND r.name = ANY($1)`

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, pq.Array(roleNames)); err != nil {
		return nil, 0, fmt.Errorf("failed to count users by roles: %w", err)
	}

	query := `
		SELECT DISTINCT u.id, u.username, u.enabled
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		JOIN roles r ON r.id = ur.role_id
		WHERE u.enabled = TRUE AND r.name = ANY($1)
		ORDER BY u.id
		LIMIT $2 OFFSET $3`

	var users []*domain.UserSummary
	if err := r.db.SelectContext(ctx, &users, query, pq.Array(roleNames), page.Limit, page.Skip()); err != nil {
		return nil, 0, fmt.Errorf("failed to find users by roles: %w", err)
	}

	return users, total, nil
}
