package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/andressep95/rbac-auth/internal/service"
	"github.com/andressep95/rbac-auth/pkg/validator"
)

type RoleHandler struct {
	roleService  *service.RoleService
	tokenService *service.TokenService
	validator    *validator.Validator
}

func NewRoleHandler(roleService *service.RoleService, tokenService *service.TokenService, validator *validator.Validator) *RoleHandler {
	return &RoleHandler{
		roleService:  roleService,
		tokenService: tokenService,
		validator:    validator,
	}
}

// CreateRole creates a new role
// POST /api/roles
func (h *RoleHandler) CreateRole(c *fiber.Ctx) error {
	actor, err := actorID(c, h.tokenService)
	if err != nil {
		return err
	}

	var req service.CreateRoleRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}

	role, err := h.roleService.Create(c.UserContext(), req, actor)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusCreated, "Role created successfully", role)
}

// ReplacePermissions sets the permissions of a role
// PUT /api/roles/:roleName/permissions
func (h *RoleHandler) ReplacePermissions(c *fiber.Ctx) error {
	actor, err := actorID(c, h.tokenService)
	if err != nil {
		return err
	}

	var req service.PermissionNamesRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}

	role, err := h.roleService.ReplacePermissions(c.UserContext(), c.Params("roleName"), req.Permissions, actor)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Role permissions updated successfully", role)
}

// ToggleStatus activates or deactivates a role
// PUT /api/roles/:roleName/status
func (h *RoleHandler) ToggleStatus(c *fiber.Ctx) error {
	actor, err := actorID(c, h.tokenService)
	if err != nil {
		return err
	}

	role, err := h.roleService.ToggleStatus(c.UserContext(), c.Params("roleName"), actor)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Role status changed successfully", role)
}

// GetUsers lists users holding any of the given roles
// GET /api/roles/users?roles=a,b
func (h *RoleHandler) GetUsers(c *fiber.Ctx) error {
	page, err := h.roleService.UsersWithRoles(c.UserContext(), queryList(c, "roles"), pageRequest(c))
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Users retrieved successfully", page)
}

// SearchRoles lists roles matching a term
// GET /api/roles?search=
func (h *RoleHandler) SearchRoles(c *fiber.Ctx) error {
	page, err := h.roleService.Search(c.UserContext(), c.Query("search"), pageRequest(c))
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Roles retrieved successfully", page)
}

// FilterRoles lists active roles by ids or names
// GET /api/roles/filter?ids=&names=
func (h *RoleHandler) FilterRoles(c *fiber.Ctx) error {
	ids, err := queryIDs(c, "ids")
	if err != nil {
		return err
	}

	page, err := h.roleService.List(c.UserContext(), ids, queryList(c, "names"), pageRequest(c))
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Roles retrieved successfully", page)
}

// RolesByPermissions lists roles granting any of the given permissions
// GET /api/roles/permissions?ids=&names=
func (h *RoleHandler) RolesByPermissions(c *fiber.Ctx) error {
	ids, err := queryIDs(c, "ids")
	if err != nil {
		return err
	}

	page, err := h.roleService.FindByPermissions(c.UserContext(), ids, queryList(c, "names"), pageRequest(c))
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Roles retrieved successfully", page)
}
