package errors

import (
	"fmt"
	"net/http"

	"github.com/backlot-hq/backlot-backend/logger"
)

type ErrorType string

const (
	ValidationError              ErrorType = "VALIDATION_ERROR"
	NotFoundError                ErrorType = "NOT_FOUND"
	AuthError                    ErrorType = "AUTHENTICATION_ERROR"
	ForbiddenError               ErrorType = "FORBIDDEN"
	DatabaseError                ErrorType = "DATABASE_ERROR"
	ServerError                  ErrorType = "SERVER_ERROR"
	ConflictError                ErrorType = "CONFLICT"
	EntryNotFoundError           ErrorType = "ENTRY_NOT_FOUND"
	EntryAccessError             ErrorType = "ENTRY_ACCESS_DENIED"
	EntryLockedError             ErrorType = "ENTRY_LOCKED"
	InvalidStatusTransitionError ErrorType = "INVALID_STATUS_TRANSITION"
	ExternalServiceError         ErrorType = "EXTERNAL_SERVICE_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Raw        error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) GetHTTPStatus() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	return getHTTPStatus(e.Type)
}

func (e *AppError) Unwrap() error {
	return e.Raw
}

// New creates a new AppError
func New(errType ErrorType, message string, detail string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		Detail:     detail,
		HTTPStatus: getHTTPStatus(errType),
	}
}

// Wrap wraps a raw error with AppError context
func Wrap(err error, errType ErrorType, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Type:       errType,
		Message:    message,
		Detail:     err.Error(),
		HTTPStatus: getHTTPStatus(errType),
		Raw:        err,
	}
}

// Helper functions for common errors

func NotFound(entity string, id interface{}) *AppError {
	return &AppError{
		Type:       NotFoundError,
		Message:    fmt.Sprintf("%s not found", entity),
		Detail:     fmt.Sprintf("ID: %v", id),
		HTTPStatus: http.StatusNotFound,
	}
}

func ValidationFailed(message string, details string) *AppError {
	return &AppError{
		Type:       ValidationError,
		Message:    message,
		Detail:     details,
		HTTPStatus: http.StatusBadRequest,
	}
}

func AuthenticationFailed(message string) *AppError {
	return &AppError{
		Type:       AuthError,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

func Forbidden(message string, details string) *AppError {
	return &AppError{
		Type:       ForbiddenError,
		Message:    message,
		Detail:     details,
		HTTPStatus: http.StatusForbidden,
	}
}

func NewDatabaseError(err error) *AppError {
	// Log original error but return sanitized message
	logger.GetLogger().Errorw("Database error", "error", err)
	return &AppError{
		Type:       DatabaseError,
		Message:    "Database operation failed",
		Detail:     "Please try again later",
		HTTPStatus: http.StatusInternalServerError,
		Raw:        err,
	}
}

func InternalServerError(message string) *AppError {
	return &AppError{
		Type:       ServerError,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

func EntryNotFound(id string) *AppError {
	return &AppError{
		Type:       EntryNotFoundError,
		Message:    "Expense entry not found",
		Detail:     fmt.Sprintf("Entry ID: %s", id),
		HTTPStatus: http.StatusNotFound,
	}
}

func EntryAccessDenied(userID, entryID string) *AppError {
	return &AppError{
		Type:       EntryAccessError,
		Message:    "Access to expense entry denied",
		Detail:     fmt.Sprintf("User %s cannot act on entry %s", userID, entryID),
		HTTPStatus: http.StatusForbidden,
	}
}

// EntryLocked is returned when an edit or delete targets an entry that has
// left the pre-approval phase. The store rejects such writes rather than
// silently ignoring them.
func EntryLocked(id string, status string) *AppError {
	return &AppError{
		Type:       EntryLockedError,
		Message:    "Expense entry can no longer be modified",
		Detail:     fmt.Sprintf("Entry %s is %s", id, status),
		HTTPStatus: http.StatusConflict,
	}
}

// InvalidStatusTransition signals a state conflict: the entry was not in a
// state compatible with the requested transition. Clients are expected to
// refetch on receiving it.
func InvalidStatusTransition(current, new string) *AppError {
	return &AppError{
		Type:       InvalidStatusTransitionError,
		Message:    "Invalid status transition",
		Detail:     fmt.Sprintf("Cannot transition from %s to %s", current, new),
		HTTPStatus: http.StatusConflict,
	}
}

func NewConflictError(message string, detail string) *AppError {
	return &AppError{
		Type:       ConflictError,
		Message:    message,
		Detail:     detail,
		HTTPStatus: http.StatusConflict,
	}
}

// ExternalServiceFailed wraps a best-effort provider failure (route distance,
// place search). Entry flows must never depend on these succeeding.
func ExternalServiceFailed(service string, err error) *AppError {
	return &AppError{
		Type:       ExternalServiceError,
		Message:    fmt.Sprintf("%s request failed", service),
		Detail:     err.Error(),
		HTTPStatus: http.StatusBadGateway,
		Raw:        err,
	}
}

func getHTTPStatus(errType ErrorType) int {
	switch errType {
	case ValidationError:
		return http.StatusBadRequest
	case NotFoundError, EntryNotFoundError:
		return http.StatusNotFound
	case AuthError:
		return http.StatusUnauthorized
	case ForbiddenError, EntryAccessError:
		return http.StatusForbidden
	case ConflictError, EntryLockedError, InvalidStatusTransitionError:
		return http.StatusConflict
	case ExternalServiceError:
		return http.StatusBadGateway
	case DatabaseError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
