package domain

import "errors"

// Error kinds surfaced by the core services. Services wrap these with
// fmt.Errorf("%w: ...") to attach detail; handlers map each kind to an
// HTTP status with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("resource not found")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("conflict")
	ErrInvalidState        = errors.New("invalid lifecycle transition")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrPrinterUnavailable  = errors.New("printer unavailable")
)

// Auth errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
)
