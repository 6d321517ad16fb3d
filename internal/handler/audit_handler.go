package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/andressep95/rbac-auth/internal/service"
)

type AuditHandler struct {
	auditService *service.AuditService
}

func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// ListAuditLogs lists audit entries, newest first
// GET /api/audit?username=&action=
func (h *AuditHandler) ListAuditLogs(c *fiber.Ctx) error {
	filter := domain.AuditFilter{
		Username: c.Query("username"),
		Action:   c.Query("action"),
	}

	page, err := h.auditService.List(c.UserContext(), filter, pageRequest(c))
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Audit logs retrieved successfully", page)
}
