package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountLocked      = errors.New("account is locked")
	ErrEntityExists       = errors.New("entity already exists")
	ErrEntityNotFound     = errors.New("entity not found")
	ErrPermissionExists   = errors.New("permission already exists")
	ErrPermissionNotFound = errors.New("permission does not exist")
	ErrCreatorRequired    = errors.New("creator is required unless bootstrapping")
	ErrEmptyFilters       = errors.New("empty filters")
)
