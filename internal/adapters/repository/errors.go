package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrGroupNotFound = errors.New("group not found")
	ErrOpenDatabase  = errors.New("open database failed")
	ErrMigrate       = errors.New("migration failed")
)
