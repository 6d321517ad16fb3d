package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/andressep95/rbac-auth/internal/service"
	"github.com/andressep95/rbac-auth/pkg/validator"
)

type PermissionHandler struct {
	permissionService *service.PermissionService
	tokenService      *service.TokenService
	validator         *validator.Validator
}

func NewPermissionHandler(permissionService *service.PermissionService, tokenService *service.TokenService, validator *validator.Validator) *PermissionHandler {
	return &PermissionHandler{
		permissionService: permissionService,
		tokenService:      tokenService,
		validator:         validator,
	}
}

// AddPermission creates a permission
// POST /api/permissions/add
func (h *PermissionHandler) AddPermission(c *fiber.Ctx) error {
	actor, err := actorID(c, h.tokenService)
	if err != nil {
		return err
	}

	var req service.AddPermissionRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}

	perm, err := h.permissionService.Add(c.UserContext(), req, actor)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusCreated, "Permission created successfully", perm)
}

// ToggleStatus activates or deactivates a permission
// PUT /api/permissions/:permissionId/status
func (h *PermissionHandler) ToggleStatus(c *fiber.Ctx) error {
	actor, err := actorID(c, h.tokenService)
	if err != nil {
		return err
	}
	id, err := paramID(c, "permissionId")
	if err != nil {
		return err
	}

	perm, err := h.permissionService.ToggleStatus(c.UserContext(), id, actor)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Permission status changed successfully", perm)
}

// UpdatePermission renames or redescribes a permission
// PUT /api/permissions/:permissionId
func (h *PermissionHandler) UpdatePermission(c *fiber.Ctx) error {
	actor, err := actorID(c, h.tokenService)
	if err != nil {
		return err
	}
	id, err := paramID(c, "permissionId")
	if err != nil {
		return err
	}

	var req service.UpdatePermissionRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}

	perm, err := h.permissionService.Update(c.UserContext(), id, req, actor)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Permission updated successfully", perm)
}

// ListPermissions lists active permissions
// GET /api/permissions/permissions
func (h *PermissionHandler) ListPermissions(c *fiber.Ctx) error {
	page, err := h.permissionService.List(c.UserContext(), pageRequest(c))
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Permissions retrieved successfully", page)
}

// PermissionsByRole lists the active permissions of a role
// GET /api/permissions/roles/:roleName
func (h *PermissionHandler) PermissionsByRole(c *fiber.Ctx) error {
	page, err := h.permissionService.ListByRole(c.UserContext(), c.Params("roleName"), pageRequest(c))
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Permissions retrieved successfully", page)
}
