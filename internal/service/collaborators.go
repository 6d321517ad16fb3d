package service

import (
	"context"

	"github.com/andressep95/rbac-auth/internal/domain"
)

// PasswordHasher produces and checks password digests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// Auditor records an action without blocking the caller.
type Auditor interface {
	Record(actor string, action domain.AuditAction)
}

// LoginGuard throttles repeated failed logins per username.
type LoginGuard interface {
	IsLocked(ctx context.Context, username string) (bool, error)
	RegisterFailure(ctx context.Context, username string) (bool, error)
	Reset(ctx context.Context, username string) error
	Unlock(ctx context.Context, username string) error
}
