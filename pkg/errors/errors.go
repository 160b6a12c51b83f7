package errors

import (
	"github.com/go-kratos/kratos/v2/errors"
)

// Common error codes
const (
	CodeBadRequest      = 400
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeTooManyRequests = 429

	CodeInternalServerError = 500
	CodeServiceUnavailable  = 503
)

// Common errors
var (
	ErrBadRequest          = errors.BadRequest("BAD_REQUEST", "Bad request")
	ErrForbidden           = errors.Forbidden("PERMISSION_DENIED", "Permission denied")
	ErrNotFound            = errors.NotFound("NOT_FOUND", "Resource not found")
	ErrTooManyRequests     = errors.New(CodeTooManyRequests, "RATE_LIMITED", "Rate limit exceeded")
	ErrInternalServerError = errors.InternalServer("INTERNAL_SERVER_ERROR", "Internal server error")
	ErrServiceUnavailable  = errors.ServiceUnavailable("SERVICE_UNAVAILABLE", "Service unavailable")
)

// NewBadRequest creates a new bad request error.
func NewBadRequest(reason, message string) *errors.Error {
	return errors.BadRequest(reason, message)
}

// NewPermissionDenied creates a permission error for the action boundary.
func NewPermissionDenied(message string) *errors.Error {
	return errors.Forbidden("PERMISSION_DENIED", message)
}

// NewRateLimited creates a rate limit error for the action boundary.
func NewRateLimited(message string) *errors.Error {
	return errors.New(CodeTooManyRequests, "RATE_LIMITED", message)
}

// NewConfiguration creates a configuration error. The router surfaces
// NO_PROVIDERS_CONFIGURED through this when the candidate chain is empty.
func NewConfiguration(reason, message string) *errors.Error {
	return errors.InternalServer(reason, message)
}

// NewNotFound creates a new not found error.
func NewNotFound(reason, message string) *errors.Error {
	return errors.NotFound(reason, message)
}

// NewInternalServerError creates a new internal server error.
func NewInternalServerError(reason, message string) *errors.Error {
	return errors.InternalServer(reason, message)
}

// IsPermissionDenied reports whether err is a permission error.
func IsPermissionDenied(err error) bool {
	return errors.IsForbidden(err)
}

// IsRateLimited reports whether err is a rate limit error.
func IsRateLimited(err error) bool {
	if e := errors.FromError(err); e != nil {
		return e.Code == CodeTooManyRequests
	}
	return false
}
