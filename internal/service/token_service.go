package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/andressep95/rbac-auth/internal/repository"
	"github.com/andressep95/rbac-auth/pkg/jwt"
	"github.com/andressep95/rbac-auth/pkg/metrics"
)

// BearerPrefix is the literal scheme prefix of the Authorization header.
const BearerPrefix = "Bearer "

var (
	ErrInvalidHeader   = errors.New("invalid authorization header")
	ErrClaimExtraction = errors.New("could not extract claims from token")
	ErrMissingClaim    = errors.New("claim missing from token")
)

// TokenService mints bearer tokens, keeps the per-user refresh record in step
// with them and answers validity questions about presented tokens.
type TokenService struct {
	codec   *jwt.Codec
	refresh repository.RefreshTokenRepository
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewTokenService(codec *jwt.Codec, refresh repository.RefreshTokenRepository, m *metrics.Metrics) *TokenService {
	return &TokenService{
		codec:   codec,
		refresh: refresh,
		metrics: m,
		now:     time.Now,
	}
}

// ExtractTokenFromHeader strips the bearer prefix. A missing header, another
// scheme or an empty token is an error.
func (s *TokenService) ExtractTokenFromHeader(header string) (string, error) {
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", ErrInvalidHeader
	}
	token := strings.TrimSpace(header[len(BearerPrefix):])
	if token == "" {
		return "", ErrInvalidHeader
	}
	return token, nil
}

// Issue mints a token valid for ttl and records it as the user's single
// refresh record. The returned value is the persisted token.
func (s *TokenService) Issue(ctx context.Context, set domain.ClaimSet, user *domain.User, ttl time.Duration) (string, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(ttl)

	token, err := s.codec.Encode(set, issuedAt, expiresAt)
	if err != nil {
		return "", err
	}

	persisted, err := s.UpsertRefresh(ctx, user, token, expiresAt)
	if err != nil {
		return "", err
	}

	s.metrics.TokenIssued()
	return persisted, nil
}

// UpsertRefresh overwrites the user's refresh record in place, creating it on
// first use. The repository guarantees a single row per user under races.
func (s *TokenService) UpsertRefresh(ctx context.Context, user *domain.User, token string, expiresAt time.Time) (string, error) {
	record, err := s.refresh.FindByUser(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("failed to load refresh token: %w", err)
		}
		record = &domain.RefreshToken{UserID: user.ID}
	}

	record.Token = token
	record.ExpiryDate = expiresAt

	saved, err := s.refresh.Save(ctx, record)
	if err != nil {
		return "", fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return saved.Token, nil
}

// IsValid holds when the token is the user's current refresh record, names
// the user as subject and has not expired. Undecodable tokens are simply not
// valid; only storage failures are returned as errors.
func (s *TokenService) IsValid(ctx context.Context, token string, user *domain.User) (bool, error) {
	claims, err := s.codec.Decode(token)
	if err != nil {
		s.metrics.TokenValidated(false)
		return false, nil
	}

	record, err := s.refresh.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.TokenValidated(false)
			return false, nil
		}
		return false, fmt.Errorf("failed to load refresh token: %w", err)
	}

	valid := record.Token == token &&
		record.UserID == user.ID &&
		claims.Subject == user.Username &&
		s.now().Before(claims.ExpiresAt.Time)

	s.metrics.TokenValidated(valid)
	return valid, nil
}

// IsExpired treats a token that cannot be decoded as expired.
func (s *TokenService) IsExpired(token string) bool {
	claims, err := s.codec.Decode(token)
	if err != nil {
		return true
	}
	return !s.now().Before(claims.ExpiresAt.Time)
}

func (s *TokenService) GetUsername(token string) (string, error) {
	claims, err := s.decode(token)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	return claims.Subject, nil
}

func (s *TokenService) GetUserID(token string) (int64, error) {
	set, err := s.claimSet(token)
	if err != nil {
		return 0, err
	}
	if set.UserID == nil {
		return 0, fmt.Errorf("%w: userId", ErrMissingClaim)
	}
	return *set.UserID, nil
}

func (s *TokenService) GetRoles(token string) ([]string, error) {
	set, err := s.claimSet(token)
	if err != nil {
		return nil, err
	}
	if set.Roles == nil {
		return nil, fmt.Errorf("%w: role", ErrMissingClaim)
	}
	return set.Roles, nil
}

func (s *TokenService) GetPermissions(token string) ([]string, error) {
	set, err := s.claimSet(token)
	if err != nil {
		return nil, err
	}
	if set.Permissions == nil {
		return nil, fmt.Errorf("%w: permissions", ErrMissingClaim)
	}
	return set.Permissions, nil
}

func (s *TokenService) decode(token string) (*domain.Claims, error) {
	claims, err := s.codec.Decode(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClaimExtraction, err)
	}
	return claims, nil
}

func (s *TokenService) claimSet(token string) (*domain.ClaimSet, error) {
	claims, err := s.decode(token)
	if err != nil {
		return nil, err
	}
	if claims.Admin == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingClaim, domain.ClaimSetKey)
	}
	return claims.Admin, nil
}
