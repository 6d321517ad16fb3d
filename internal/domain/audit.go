package domain

import "time"

// AuditAction is drawn from a fixed vocabulary.
type AuditAction string

const (
	ActionLogin               AuditAction = "LOGIN"
	ActionSelfRegister        AuditAction = "SELF_REGISTER"
	ActionRegister            AuditAction = "REGISTER"
	ActionUpdate              AuditAction = "UPDATE"
	ActionResetPassword       AuditAction = "RESET_PASSWORD"
	ActionAddRole             AuditAction = "ADD_ROLE"
	ActionAddPermission       AuditAction = "ADD_PERMISSION"
	ActionAddPermissionToRole AuditAction = "ADD_PERMISSION_TO_ROLE"
	ActionChangeRoleStatus    AuditAction = "CHANGE_ROLE_STATUS"
	ActionChangePermission    AuditAction = "CHANGE_PERMISSION_STATUS"
	ActionUpdatePermission    AuditAction = "UPDATE_PERMISSION"
	ActionAssignRoles         AuditAction = "ASSIGN_ROLES"
	ActionRemoveRoles         AuditAction = "REMOVE_ROLES"
	ActionActivateUser        AuditAction = "ACTIVATE_USER"
	ActionDeactivateUser      AuditAction = "DEACTIVATE_USER"
)

type AuditLog struct {
	ID        int64       `json:"id" db:"id"`
	Username  string      `json:"username" db:"username"`
	Action    AuditAction `json:"action" db:"action"`
	Timestamp time.Time   `json:"timestamp" db:"timestamp"`
}

// AuditFilter narrows audit log listings; empty fields match everything.
type AuditFilter struct {
	Username string
	Action   string
}
