package handler

import (
	"github.com/gofiber/fiber/v2"
)

func SetupRoutes(
	app *fiber.App,
	authHandler *AuthHandler,
	userHandler *UserHandler,
	roleHandler *RoleHandler,
	permissionHandler *PermissionHandler,
	auditHandler *AuditHandler,
	healthHandler *HealthHandler,
) {
	// Health checks (public)
	app.Get("/health", healthHandler.Health)
	app.Get("/ready", healthHandler.Ready)

	// Auth routes
	auth := app.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/self-register", authHandler.SelfRegister)
	auth.Post("/register", userHandler.Register)
	auth.Post("/update", userHandler.Update)
	auth.Put("/reset-password", userHandler.ResetPassword)

	app.Post("/authenticate/token", authHandler.AuthenticateToken)

	api := app.Group("/api")

	// User administration
	admin := api.Group("/admin")
	admin.Post("/assign-roles/:userId", userHandler.AssignRoles)
	admin.Post("/remove-roles/:userId", userHandler.RemoveRoles)
	admin.Put("/deactivate/:userId", userHandler.Deactivate)
	admin.Put("/activate/:userId", userHandler.Activate)

	// Role management
	roles := api.Group("/roles")
	roles.Post("/", roleHandler.CreateRole)
	roles.Get("/", roleHandler.SearchRoles)
	roles.Get("/users", roleHandler.GetUsers)
	roles.Get("/filter", roleHandler.FilterRoles)
	roles.Get("/permissions", roleHandler.RolesByPermissions)
	roles.Put("/:roleName/permissions", roleHandler.ReplacePermissions)
	roles.Put("/:roleName/status", roleHandler.ToggleStatus)

	// Permission management (super admin only, enforced by the decision point)
	permissions := api.Group("/permissions")
	permissions.Post("/add", permissionHandler.AddPermission)
	permissions.Get("/permissions", permissionHandler.ListPermissions)
	permissions.Get("/roles/:roleName", permissionHandler.PermissionsByRole)
	permissions.Put("/:permissionId/status", permissionHandler.ToggleStatus)
	permissions.Put("/:permissionId", permissionHandler.UpdatePermission)

	// Audit log (super admin only)
	api.Get("/audit", auditHandler.ListAuditLogs)
}
