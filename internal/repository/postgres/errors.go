package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/andressep95/rbac-auth/internal/repository"
)

const uniqueViolation = "23505"

// wrapWriteErr turns unique constraint violations into repository.ErrConflict.
func wrapWriteErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("failed to %s: %w", op, repository.ErrConflict)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
