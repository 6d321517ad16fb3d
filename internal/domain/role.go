package domain

import (
	"time"
)

// Role represents a role in the RBAC system
type Role struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedBy   *int64    `json:"created_by,omitempty" db:"created_by"`
	UpdatedBy   *int64    `json:"updated_by,omitempty" db:"updated_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	Permissions []*Permission `json:"permissions,omitempty" db:"-"`
}

// Permission represents a named grant that roles fan out to
type Permission struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Active      bool      `json:"active" db:"active"`
	CreatedBy   *int64    `json:"created_by,omitempty" db:"created_by"`
	UpdatedBy   *int64    `json:"updated_by,omitempty" db:"updated_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// RoleView is the outbound shape of a role.
type RoleView struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Active      bool             `json:"active"`
	Permissions []PermissionView `json:"permissions"`
}

func (r *Role) View() RoleView {
	perms := make([]PermissionView, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, p.View())
	}
	return RoleView{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Active:      r.IsActive,
		Permissions: perms,
	}
}

// PermissionView is the outbound shape of a permission.
type PermissionView struct {
	Permission  string `json:"permission" db:"name"`
	Description string `json:"description" db:"description"`
}

func (p *Permission) View() PermissionView {
	return PermissionView{Permission: p.Name, Description: p.Description}
}

// Page is one window of a paged listing.
type Page[T any] struct {
	Content []T `json:"content"`
	Total   int `json:"total"`
	Offset  int `json:"offset"`
	Limit   int `json:"limit"`
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageRequest addresses one page of a listing; Offset is a page index.
type PageRequest struct {
	Offset int
	Limit  int
}

// NewPageRequest clamps the requested window to sane bounds.
func NewPageRequest(offset, limit int) PageRequest {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return PageRequest{Offset: offset, Limit: limit}
}

// Skip is the number of rows preceding the page.
func (p PageRequest) Skip() int {
	return p.Offset * p.Limit
}

// NewPage wraps a slice of results for the given request.
func NewPage[T any](content []T, total int, req PageRequest) Page[T] {
	if content == nil {
		content = []T{}
	}
	return Page[T]{Content: content, Total: total, Offset: req.Offset, Limit: req.Limit}
}
