package session

import (
	"context"
	"errors"

	"github.com/mcoot/scoutbook/internal/model"
)

// Message returns the user-facing text for an authentication failure.
// model.ErrAuthenticationFailed maps to "" when the user backed out of a
// biometric prompt; callers decide whether to surface it.
func Message(err error) string {
	var storageErr *model.StorageError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, model.ErrAccountNotFound):
		return "Account not found. Please register first or check your credentials."
	case errors.Is(err, model.ErrWeakPassword):
		return "Password must be at least 6 characters"
	case errors.Is(err, model.ErrEmailAlreadyExists):
		return "An account with this email already exists"
	case errors.Is(err, model.ErrInvalidRegistrationCode):
		return "Invalid or expired registration code"
	case errors.Is(err, model.ErrInvalidInput):
		return "Please fill in all required fields"
	case errors.Is(err, model.ErrInvalidFederatedToken), errors.Is(err, model.ErrFederatedInUse):
		return "Sign in with your provider failed. Please try again."
	case errors.Is(err, model.ErrAlreadyAuthenticated):
		return "You are already signed in. Sign out first to switch accounts."
	case errors.Is(err, model.ErrBiometryUnavailable):
		return "Biometric authentication is not available on this device"
	case errors.Is(err, model.ErrCredentialsNotFound):
		return "No saved sign-in found. Please sign in with your email and password."
	case errors.Is(err, model.ErrAuthenticationFailed):
		return "Authentication failed"
	case errors.Is(err, model.ErrVaultUnavailable):
		return "Biometric authentication is currently unavailable"
	case errors.As(err, &storageErr):
		return "Unable to save your account. Please try again."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "The request was cancelled"
	default:
		return "Something went wrong. Please try again."
	}
}
