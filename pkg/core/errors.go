package core

import "errors"

// Common errors.
var (
	ErrNotFound     = errors.New("entry not found")
	ErrExists       = errors.New("entry already exists")
	ErrInvalidTitle = errors.New("invalid entry title")
	ErrReadOnly     = errors.New("repository is in read-only mode")
	ErrUnsupported  = errors.New("operation not supported by repository")
)
