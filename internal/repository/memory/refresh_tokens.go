package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/andressep95/rbac-auth/internal/repository"
)

// RefreshTokenRepository keys records by user id, so there is never more
// than one record per user.
type RefreshTokenRepository struct {
	s *Store
}

func (r *RefreshTokenRepository) FindByUser(_ context.Context, userID int64) (*domain.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	record, ok := r.s.refresh[userID]
	if !ok {
		return nil, fmt.Errorf("refresh token not found: %w", repository.ErrNotFound)
	}
	cp := *record
	return &cp, nil
}

func (r *RefreshTokenRepository) FindByToken(_ context.Context, token string) (*domain.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, record := range r.s.refresh {
		if record.Token == token {
			cp := *record
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("refresh token not found: %w", repository.ErrNotFound)
}

func (r *RefreshTokenRepository) Save(_ context.Context, record *domain.RefreshToken) (*domain.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.refresh[record.UserID]
	if !ok {
		r.s.nextRefreshID++
		existing = &domain.RefreshToken{ID: r.s.nextRefreshID, UserID: record.UserID}
		r.s.refresh[record.UserID] = existing
	}
	existing.Token = record.Token
	existing.ExpiryDate = record.ExpiryDate

	cp := *existing
	return &cp, nil
}

func (r *RefreshTokenRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for userID, record := range r.s.refresh {
		if record.ExpiryDate.Before(before) {
			delete(r.s.refresh, userID)
			n++
		}
	}
	return n, nil
}

// Count reports how many refresh records exist.
func (r *RefreshTokenRepository) Count() int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.refresh)
}
