package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/scoutbook/internal/model"
	"github.com/mcoot/scoutbook/internal/services/session"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest          = "INVALID_REQUEST"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeForbidden               = "FORBIDDEN"
	CodeAccountNotFound         = "ACCOUNT_NOT_FOUND"
	CodeWeakPassword            = "WEAK_PASSWORD"
	CodeEmailExists             = "EMAIL_EXISTS"
	CodeInvalidRegistrationCode = "INVALID_REGISTRATION_CODE"
	CodeInvalidFederatedToken   = "INVALID_FEDERATED_TOKEN"
	CodeFederatedInUse          = "FEDERATED_IN_USE"
	CodeAlreadyAuthenticated    = "ALREADY_AUTHENTICATED"
	CodeBiometryUnavailable     = "BIOMETRY_UNAVAILABLE"
	CodeCredentialsNotFound     = "CREDENTIALS_NOT_FOUND"
	CodeAuthenticationFailed    = "AUTHENTICATION_FAILED"
	CodeVaultUnavailable        = "VAULT_UNAVAILABLE"
	CodeUserNotFound            = "USER_NOT_FOUND"
	CodeReportNotFound          = "REPORT_NOT_FOUND"
	CodeCodeNotFound            = "CODE_NOT_FOUND"
	CodeCodeExists              = "CODE_EXISTS"
	CodeLastAdmin               = "LAST_ADMIN"
	CodeStorageError            = "STORAGE_ERROR"
	CodeInternalError           = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Sign-in failures carry the same text the session shows
	authError := func(status int, code string) *httpError {
		return &httpError{status, APIError{code, session.Message(err)}}
	}

	var storageErr *model.StorageError
	switch {
	case errors.Is(err, model.ErrAccountNotFound):
		return authError(http.StatusUnauthorized, CodeAccountNotFound)
	case errors.Is(err, model.ErrWeakPassword):
		return authError(http.StatusBadRequest, CodeWeakPassword)
	case errors.Is(err, model.ErrEmailAlreadyExists):
		return authError(http.StatusConflict, CodeEmailExists)
	case errors.Is(err, model.ErrInvalidRegistrationCode):
		return authError(http.StatusBadRequest, CodeInvalidRegistrationCode)
	case errors.Is(err, model.ErrInvalidInput):
		return authError(http.StatusBadRequest, CodeInvalidRequest)
	case errors.Is(err, model.ErrInvalidFederatedToken):
		return authError(http.StatusUnauthorized, CodeInvalidFederatedToken)
	case errors.Is(err, model.ErrFederatedInUse):
		return &httpError{http.StatusConflict, APIError{CodeFederatedInUse, "Provider account is linked to another user"}}
	case errors.Is(err, model.ErrAlreadyAuthenticated):
		return authError(http.StatusConflict, CodeAlreadyAuthenticated)
	case errors.Is(err, model.ErrBiometryUnavailable):
		return authError(http.StatusConflict, CodeBiometryUnavailable)
	case errors.Is(err, model.ErrCredentialsNotFound):
		return authError(http.StatusNotFound, CodeCredentialsNotFound)
	case errors.Is(err, model.ErrAuthenticationFailed):
		return authError(http.StatusUnauthorized, CodeAuthenticationFailed)
	case errors.Is(err, model.ErrVaultUnavailable):
		return authError(http.StatusServiceUnavailable, CodeVaultUnavailable)

	// Map credential store errors
	case errors.Is(err, model.ErrUserNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeUserNotFound, "User not found"}}
	case errors.Is(err, model.ErrReportNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeReportNotFound, "Report not found"}}
	case errors.Is(err, model.ErrCodeNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeCodeNotFound, "Registration code not found"}}
	case errors.Is(err, model.ErrCodeExists):
		return &httpError{http.StatusConflict, APIError{CodeCodeExists, "Registration code already exists"}}
	case errors.Is(err, model.ErrLastAdmin):
		return &httpError{http.StatusConflict, APIError{CodeLastAdmin, "Cannot remove the last administrator"}}
	case errors.As(err, &storageErr):
		return &httpError{http.StatusInternalServerError, APIError{CodeStorageError, "Failed to save changes"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewForbiddenError creates an error for non-admin access to admin routes
func NewForbiddenError() error {
	return &httpError{http.StatusForbidden, APIError{CodeForbidden, "Administrator access required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
