package service

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateEmail     = errors.New("user with this email already exists")
	ErrDuplicateTitle     = errors.New("you already have an item with this title")
	ErrInvalidCredentials = errors.New("incorrect credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidOTP         = errors.New("invalid or expired otp")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrSearchUnavailable  = errors.New("search is not configured")
	ErrUpload             = errors.New("image upload failed")
)

// ValidationError carries a client-facing message and matches ErrValidation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(msg string) error { return &ValidationError{Msg: msg} }
