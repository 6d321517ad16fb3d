package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/andressep95/rbac-auth/internal/repository"
	"github.com/andressep95/rbac-auth/internal/service"
	"github.com/andressep95/rbac-auth/pkg/metrics"
)

// Locals keys set by AuthFilter.
const (
	LocalsPrincipal = "principal"
	LocalsUserID    = "user_id"
	LocalsUsername  = "username"
	LocalsToken     = "token"
)

// UserLookup finds the user a token claims to belong to.
type UserLookup interface {
	FindByUsernameEnabled(ctx context.Context, username string) (*domain.User, error)
}

// RoleLookup loads the authorities granted to a user.
type RoleLookup interface {
	GetUserRoles(ctx context.Context, userID int64) ([]*domain.Role, error)
}

// AuthFilter establishes the request principal from a bearer token. Requests
// without a bearer header pass through anonymously, as do requests whose
// token is well formed but no longer valid. Malformed tokens get 400 and
// tokens naming an unusable account get 401.
func AuthFilter(tokens *service.TokenService, users UserLookup, roles RoleLookup, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, service.BearerPrefix) {
			m.FilterOutcome(metrics.FilterAnonymous)
			return c.Next()
		}
		if PrincipalFrom(c) != nil {
			return c.Next()
		}

		token, err := tokens.ExtractTokenFromHeader(header)
		if err != nil {
			m.FilterOutcome(metrics.FilterMalformed)
			return reject(c, fiber.StatusBadRequest, err.Error())
		}

		username, err := tokens.GetUsername(token)
		if err != nil {
			m.FilterOutcome(metrics.FilterMalformed)
			return reject(c, fiber.StatusBadRequest, err.Error())
		}

		ctx := c.UserContext()
		user, err := users.FindByUsernameEnabled(ctx, username)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				m.FilterOutcome(metrics.FilterUnknownUser)
				return reject(c, fiber.StatusUnauthorized, "user not found or disabled")
			}
			m.FilterOutcome(metrics.FilterError)
			return reject(c, fiber.StatusBadRequest, err.Error())
		}
		if !user.Enabled || !user.CredentialsNonExpired {
			m.FilterOutcome(metrics.FilterUnknownUser)
			return reject(c, fiber.StatusUnauthorized, "user not found or disabled")
		}

		valid, err := tokens.IsValid(ctx, token, user)
		if err != nil {
			m.FilterOutcome(metrics.FilterError)
			return reject(c, fiber.StatusBadRequest, err.Error())
		}
		if !valid {
			m.FilterOutcome(metrics.FilterInvalid)
			return c.Next()
		}

		granted, err := roles.GetUserRoles(ctx, user.ID)
		if err != nil {
			m.FilterOutcome(metrics.FilterError)
			return reject(c, fiber.StatusBadRequest, err.Error())
		}
		user.Roles = granted

		c.Locals(LocalsPrincipal, &domain.Principal{
			UserID:      user.ID,
			Username:    user.Username,
			Authorities: user.RoleNames(),
			Token:       token,
		})
		c.Locals(LocalsUserID, user.ID)
		c.Locals(LocalsUsername, user.Username)
		c.Locals(LocalsToken, token)

		m.FilterOutcome(metrics.FilterAuthenticated)
		return c.Next()
	}
}

// PrincipalFrom returns the authenticated principal, or nil for anonymous requests.
func PrincipalFrom(c *fiber.Ctx) *domain.Principal {
	p, _ := c.Locals(LocalsPrincipal).(*domain.Principal)
	return p
}

func reject(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
