package domain

import "errors"

// Outcome categories shared by every service. Callers match with errors.Is;
// services wrap them with detail via fmt.Errorf("%w: ...").
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrPersistence        = errors.New("persistence failed")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Cart errors
var (
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 2147483647")
	ErrNotCartOwner    = errors.New("cart belongs to another principal")
)

// Chat errors
var (
	ErrEmptySender = errors.New("sender is required")
	ErrEmptyBody   = errors.New("message body is required")
)
