package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Storage errors
	ErrRecordNotFound = errors.New("record not found")

	// Credential store errors
	ErrUserNotFound   = errors.New("user not found")
	ErrReportNotFound = errors.New("report not found")
	ErrCodeNotFound   = errors.New("registration code not found")
	ErrCodeExists     = errors.New("registration code already exists")
	ErrLastAdmin      = errors.New("cannot remove the last administrator")
	ErrFederatedInUse = errors.New("federated identifier linked to another user")

	// Identity errors
	ErrAccountNotFound         = errors.New("account not found")
	ErrWeakPassword            = errors.New("password too short")
	ErrEmailAlreadyExists      = errors.New("email already exists")
	ErrInvalidRegistrationCode = errors.New("invalid or exhausted registration code")
	ErrInvalidInput            = errors.New("invalid input")
	ErrInvalidFederatedToken   = errors.New("invalid federated identity token")
	ErrAlreadyAuthenticated    = errors.New("already signed in")

	// Vault errors
	ErrBiometryUnavailable  = errors.New("biometry unavailable")
	ErrCredentialsNotFound  = errors.New("no cached credentials")
	ErrAuthenticationFailed = errors.New("authentication failed or cancelled")
	ErrVaultUnavailable     = errors.New("credential vault unavailable")
)

// StorageError reports a failed read or write of a persisted record
type StorageError struct {
	Op  string // "get", "set" or "delete"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
