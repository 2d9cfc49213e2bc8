package server

import (
	"errors"
	"fmt"
	"net/http"
)

// Client-facing failure messages.
const (
	MessageAccessDenied   = "Access denied"
	MessageDisabled       = "Document summaries are disabled"
	MessageProviderFailed = "Unable to generate a summary for this document."
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrAccessDenied indicates a missing, invalid or mismatched anti-forgery token
type ErrAccessDenied struct {
	Reason string
}

func (e *ErrAccessDenied) Error() string {
	return fmt.Sprintf("access denied: %s", e.Reason)
}

// ErrDisabled indicates the summarizer is switched off in settings
type ErrDisabled struct{}

func (e *ErrDisabled) Error() string {
	return "document summaries are disabled"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation *ErrValidation
		denied     *ErrAccessDenied
		disabled   *ErrDisabled
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &denied):
		return http.StatusForbidden
	case errors.As(err, &disabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage returns the envelope error text for err.
func publicMessage(err error) string {
	var (
		validation *ErrValidation
		denied     *ErrAccessDenied
		disabled   *ErrDisabled
	)
	switch {
	case errors.As(err, &validation):
		return validation.Message
	case errors.As(err, &denied):
		return MessageAccessDenied
	case errors.As(err, &disabled):
		return MessageDisabled
	default:
		return MessageProviderFailed
	}
}
