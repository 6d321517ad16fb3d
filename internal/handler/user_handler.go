package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/andressep95/rbac-auth/internal/service"
	"github.com/andressep95/rbac-auth/pkg/validator"
)

type UserHandler struct {
	userService  *service.UserService
	tokenService *service.TokenService
	validator    *validator.Validator
}

func NewUserHandler(userService *service.UserService, tokenService *service.TokenService, validator *validator.Validator) *UserHandler {
	return &UserHandler{
		userService:  userService,
		tokenService: tokenService,
		validator:    validator,
	}
}

// Register creates a user on behalf of the caller
// POST /auth/register
func (h *UserHandler) Register(c *fiber.Ctx) error {
	creatorID, err := actorID(c, h.tokenService)
	if err != nil {
		return err
	}

	var req service.RegisterRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}

	user, err := h.userService.Register(c.UserContext(), req, creatorID)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusCreated, "User registered successfully", user)
}

// Update changes username, password or roles of a user
// POST /auth/update?username=
func (h *UserHandler) Update(c *fiber.Ctx) error {
	actor, err := actorID(c, h.tokenService)
	if err != nil {
		return err
	}

	username := c.Query("username")
	if username == "" {
		return fiber.NewError(fiber.StatusBadRequest, "username is required")
	}

	var req service.UpdateUserRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}

	user, err := h.userService.Update(c.UserContext(), username, req, actor)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "User updated successfully", user)
}

// ResetPassword sets a new password for a user
// PUT /auth/reset-password
func (h *UserHandler) ResetPassword(c *fiber.Ctx) error {
	actor, err := actorID(c, h.tokenService)
	if err != nil {
		return err
	}

	var req service.ResetPasswordRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}

	user, err := h.userService.ResetPassword(c.UserContext(), req, actor)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Password reset successfully", user)
}

// AssignRoles adds roles to a user
// POST /api/admin/assign-roles/:userId
func (h *UserHandler) AssignRoles(c *fiber.Ctx) error {
	userID, actor, req, err := h.roleChange(c)
	if err != nil {
		return err
	}

	user, err := h.userService.AssignRoles(c.UserContext(), userID, req.Data, actor)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Roles assigned successfully", user)
}

// RemoveRoles takes roles away from a user
// POST /api/admin/remove-roles/:userId
func (h *UserHandler) RemoveRoles(c *fiber.Ctx) error {
	userID, actor, req, err := h.roleChange(c)
	if err != nil {
		return err
	}

	user, err := h.userService.RemoveRoles(c.UserContext(), userID, req.Data, actor)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Roles removed successfully", user)
}

// Activate re-enables a user
// PUT /api/admin/activate/:userId
func (h *UserHandler) Activate(c *fiber.Ctx) error {
	return h.setEnabled(c, true, "User activated successfully")
}

// Deactivate disables a user
// PUT /api/admin/deactivate/:userId
func (h *UserHandler) Deactivate(c *fiber.Ctx) error {
	return h.setEnabled(c, false, "User deactivated successfully")
}

func (h *UserHandler) setEnabled(c *fiber.Ctx, enabled bool, message string) error {
	actor, err := actorID(c, h.tokenService)
	if err != nil {
		return err
	}
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	if err := h.userService.SetEnabled(c.UserContext(), userID, enabled, actor); err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, message, nil)
}

func (h *UserHandler) roleChange(c *fiber.Ctx) (int64, int64, service.RoleNamesRequest, error) {
	var req service.RoleNamesRequest

	actor, err := actorID(c, h.tokenService)
	if err != nil {
		return 0, 0, req, err
	}
	userID, err := paramID(c, "userId")
	if err != nil {
		return 0, 0, req, err
	}
	if err := parseBody(c, h.validator, &req); err != nil {
		return 0, 0, req, err
	}
	return userID, actor, req, nil
}
