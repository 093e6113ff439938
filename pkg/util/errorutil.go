package util

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/channel-token-service/internal/domain"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError. Token composition
// sentinels keep their own wire codes: caller-input failures become 400s,
// while a missing signing credential surfaces as a server-side
// configuration error.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	switch {
	case errors.Is(err, domain.ErrMissingChannel):
		return NewDomainError("MISSING_CHANNEL", err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, domain.ErrMissingSubject):
		return NewDomainError("MISSING_SUBJECT", err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, domain.ErrInvalidRole):
		return NewDomainError("INVALID_ROLE", err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, domain.ErrInvalidTokenType):
		return NewDomainError("INVALID_TOKEN_TYPE", err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, domain.ErrMissingCredential):
		return &DomainError{
			Code:       "MISSING_CREDENTIAL",
			Message:    err.Error(),
			HTTPStatus: http.StatusInternalServerError,
			Err:        err,
		}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &DomainError{
			Code:       codeForStatus(fiberErr.Code),
			Message:    fiberErr.Message,
			HTTPStatus: fiberErr.Code,
		}
	}

	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func codeForStatus(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}
