package core

import "errors"

// Service-level errors. Handlers map them to HTTP status codes with errors.Is.
var (
	ErrEmailExists        = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrInvalidTransition  = errors.New("invalid booking status transition")
	ErrForbidden          = errors.New("booking belongs to another user")
	ErrValidation         = errors.New("validation failed")
)
