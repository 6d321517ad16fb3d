package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/andressep95/rbac-auth/internal/repository"
	"github.com/andressep95/rbac-auth/pkg/metrics"
)

type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type AuthService struct {
	users       repository.UserRepository
	roles       repository.RoleRepository
	permissions repository.PermissionRepository
	tokens      *TokenService
	hasher      PasswordHasher
	guard       LoginGuard
	audit       Auditor
	metrics     *metrics.Metrics
	logger      logrus.FieldLogger
	tokenTTL    time.Duration
}

func NewAuthService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	permissions repository.PermissionRepository,
	tokens *TokenService,
	hasher PasswordHasher,
	guard LoginGuard,
	audit Auditor,
	m *metrics.Metrics,
	logger logrus.FieldLogger,
	tokenTTL time.Duration,
) *AuthService {
	return &AuthService{
		users:       users,
		roles:       roles,
		permissions: permissions,
		tokens:      tokens,
		hasher:      hasher,
		guard:       guard,
		audit:       audit,
		metrics:     m,
		logger:      logger,
		tokenTTL:    tokenTTL,
	}
}

// Login verifies credentials and issues a token carrying the user's active
// roles and permissions. The token replaces any previously issued one.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*domain.TokenResponse, error) {
	resp, err := s.login(ctx, req)
	s.metrics.LoginAttempt(err == nil)
	return resp, err
}

func (s *AuthService) login(ctx context.Context, req LoginRequest) (*domain.TokenResponse, error) {
	locked, err := s.guard.IsLocked(ctx, req.Username)
	if err != nil {
		s.logger.WithError(err).WithField("username", req.Username).Warn("login guard unavailable")
	}
	if locked {
		return nil, ErrAccountLocked
	}

	user, err := s.users.FindByUsernameEnabled(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.failed(ctx, req.Username)
		}
		return nil, err
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, s.failed(ctx, req.Username)
	}
	if !user.AccountNonLocked {
		return nil, ErrAccountLocked
	}
	if !user.AccountNonExpired || !user.CredentialsNonExpired {
		return nil, ErrInvalidCredentials
	}

	if err := s.guard.Reset(ctx, user.Username); err != nil {
		s.logger.WithError(err).WithField("username", user.Username).Warn("failed to reset login guard")
	}

	set, err := s.claimSet(ctx, user)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(ctx, set, user, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.audit.Record(user.Username, domain.ActionLogin)
	s.logger.WithField("username", user.Username).Info("user logged in")

	return &domain.TokenResponse{
		Token:       token,
		Roles:       set.Roles,
		Permissions: set.Permissions,
	}, nil
}

// failed feeds the guard and returns the error the caller should see.
func (s *AuthService) failed(ctx context.Context, username string) error {
	locked, err := s.guard.RegisterFailure(ctx, username)
	if err != nil {
		s.logger.WithError(err).WithField("username", username).Warn("failed to register login failure")
		return ErrInvalidCredentials
	}
	if locked {
		s.logger.WithField("username", username).Warn("username locked after repeated failures")
		return ErrAccountLocked
	}
	return ErrInvalidCredentials
}

// claimSet snapshots the user's active roles and their distinct active permissions.
func (s *AuthService) claimSet(ctx context.Context, user *domain.User) (domain.ClaimSet, error) {
	roles, err := s.roles.GetUserRoles(ctx, user.ID)
	if err != nil {
		return domain.ClaimSet{}, err
	}
	user.Roles = roles

	permissions, err := s.permissions.GetUserPermissionNames(ctx, user.ID)
	if err != nil {
		return domain.ClaimSet{}, err
	}
	if permissions == nil {
		permissions = []string{}
	}

	id := user.ID
	return domain.ClaimSet{
		Username:    user.Username,
		UserID:      &id,
		Roles:       user.RoleNames(),
		Permissions: permissions,
	}, nil
}
