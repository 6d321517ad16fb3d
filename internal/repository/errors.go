package repository

import "errors"

var (
	// ErrNotFound is returned (wrapped) when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned (wrapped) when a unique constraint rejects a write.
	ErrConflict = errors.New("record conflicts with an existing one")
)
