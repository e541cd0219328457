package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrSelfDeletion       = errors.New("cannot delete your own account")
	ErrInsufficientStock  = errors.New("insufficient stock")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
	Cause  error // optional, a more specific sentinel
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrValidation, e.Cause}
	}
	return []error{ErrValidation}
}

// Invalid is shorthand for a field-level ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// WeakPassword is both a ValidationError and ErrWeakPassword.
func WeakPassword() error {
	return &ValidationError{Field: "password", Reason: "must be at least 6 characters", Cause: ErrWeakPassword}
}

// PasswordTooLong is a ValidationError for passwords bcrypt cannot hash.
func PasswordTooLong(maxBytes int) error {
	return Invalid("password", fmt.Sprintf("must be at most %d bytes", maxBytes))
}

// InsufficientStockError is returned when a cart line asks for more than is on the shelf.
type InsufficientStockError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s", e.ProductName)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
