package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/andressep95/rbac-auth/internal/repository"
)

type refreshTokenRepository struct {
	db *sqlx.DB
}

// NewRefreshTokenRepository creates a new PostgreSQL refresh token repository
func NewRefreshTokenRepository(db *sqlx.DB) repository.RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// FindByUser retrieves the refresh record owned by a user
func (r *refreshTokenRepository) FindByUser(ctx context.Context, userID int64) (*domain.RefreshToken, error) {
	query := `
		SELECT id, token, user_id, expiry_date
		FROM refresh_tokens
		WHERE user_id = $1`

	var record domain.RefreshToken
	err := r.db.GetContext(ctx, &record, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("refresh token not found: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get refresh token by user: %w", err)
	}

	return &record, nil
}

// FindByToken retrieves the refresh record holding the given token value
func (r *refreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, token, user_id, expiry_date
		FROM refresh_tokens
		WHERE token = $1`

	var record domain.RefreshToken
	err := r.db.GetContext(ctx, &record, query, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("refresh token not found: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return &record, nil
}

// Save upserts on the unique user_id column so concurrent logins for the
// same user collapse into one row.
func (r *refreshTokenRepository) Save(ctx context.Context, record *domain.RefreshToken) (*domain.RefreshToken, error) {
	query := `
		INSERT INTO refresh_tokens (token, user_id, expiry_date)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET token = EXCLUDED.token,
			expiry_date = EXCLUDED.expiry_date
		RETURNING id, token, user_id, expiry_date`

	var saved domain.RefreshToken
	err := r.db.GetContext(ctx, &saved, query, record.Token, record.UserID, record.ExpiryDate)
	if err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &saved, nil
}

// DeleteExpired removes refresh records that expired before the given time
func (r *refreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expiry_date < $1`

	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}
