package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// WithMessage returns a copy of e carrying a more specific message
func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    msg,
		StatusCode: e.StatusCode,
		Err:        e.Err,
	}
}

// Is matches any AppError with the same code, so wrapped copies still satisfy errors.Is
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Invalid or missing admin token",
		StatusCode: 401,
	}

	ErrForbidden = &AppError{
		Code:       "FORBIDDEN",
		Message:    "Access denied",
		StatusCode: 403,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrUserNotFound = &AppError{
		Code:       "USER_NOT_FOUND",
		Message:    "User not found",
		StatusCode: 404,
	}

	ErrAnalysisNotFound = &AppError{
		Code:       "ANALYSIS_NOT_FOUND",
		Message:    "Analysis not found",
		StatusCode: 404,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	ErrImageTooLarge = &AppError{
		Code:       "IMAGE_TOO_LARGE",
		Message:    "Image exceeds the maximum allowed size",
		StatusCode: 413,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrServiceUnavailable = &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    "Service temporarily unavailable",
		StatusCode: 503,
	}
)
