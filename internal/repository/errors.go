package repository

import "errors"

// Sentinel errors shared across repositories.
var (
	ErrEmailExists = errors.New("email already exists")
	ErrNotFound    = errors.New("record not found")
)
