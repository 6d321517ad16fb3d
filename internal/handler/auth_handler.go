package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/andressep95/rbac-auth/internal/service"
	"github.com/andressep95/rbac-auth/pkg/validator"
)

type AuthHandler struct {
	authService  *service.AuthService
	userService  *service.UserService
	tokenService *service.TokenService
	validator    *validator.Validator
}

func NewAuthHandler(
	authService *service.AuthService,
	userService *service.UserService,
	tokenService *service.TokenService,
	validator *validator.Validator,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		userService:  userService,
		tokenService: tokenService,
		validator:    validator,
	}
}

// Login handles user login
// POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}

	resp, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Login successful", resp)
}

// SelfRegister creates a user that is its own creator
// POST /auth/self-register
func (h *AuthHandler) SelfRegister(c *fiber.Ctx) error {
	var req service.RegisterRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}

	user, err := h.userService.SelfRegister(c.UserContext(), req)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusCreated, "User registered successfully", user)
}

// tokenOwner is the account behind a token plus the grants captured in it at
// issuance.
type tokenOwner struct {
	*domain.UserDetails
	TokenRoles       []string `json:"token_roles"`
	TokenPermissions []string `json:"token_permissions"`
}

// AuthenticateToken returns the user a bearer token belongs to
// POST /authenticate/token
func (h *AuthHandler) AuthenticateToken(c *fiber.Ctx) error {
	principal, err := authenticated(c)
	if err != nil {
		return err
	}

	roles, err := h.tokenService.GetRoles(principal.Token)
	if err != nil {
		return err
	}
	permissions, err := h.tokenService.GetPermissions(principal.Token)
	if err != nil {
		return err
	}

	user, err := h.userService.DetailsByUsername(c.UserContext(), principal.Username)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Token authenticated", tokenOwner{
		UserDetails:      user,
		TokenRoles:       roles,
		TokenPermissions: permissions,
	})
}
