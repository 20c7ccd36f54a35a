package types

import "errors"

// Storage lifecycle errors.
var (
	ErrDetached        = errors.New("storage is detached")
	ErrAlreadyAttached = errors.New("storage is already attached")
)

// Storage operation errors.
var (
	ErrNotFound          = errors.New("entity not found")
	ErrDuplicateUUID     = errors.New("table object uuid already exists")
	ErrDuplicateProperty = errors.New("property already exists on table object")
)

// Entity errors.
var (
	ErrInvalidTableID      = errors.New("invalid table id")
	ErrInvalidName         = errors.New("invalid name")
	ErrInvalidVisibility   = errors.New("invalid visibility")
	ErrInvalidUploadStatus = errors.New("invalid upload status")
	ErrInvalidUUID         = errors.New("invalid uuid")
)
