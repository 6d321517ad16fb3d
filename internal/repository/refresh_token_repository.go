package repository

import (
	"context"
	"time"

	"github.com/andressep95/rbac-auth/internal/domain"
)

type RefreshTokenRepository interface {
	FindByUser(ctx context.Context, userID int64) (*domain.RefreshToken, error)
	FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	// Save writes the record for record.UserID. Implementations must keep at
	// most one row per user even under concurrent calls.
	Save(ctx context.Context, record *domain.RefreshToken) (*domain.RefreshToken, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
