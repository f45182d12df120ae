package utils

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("Unauthorized Access!")
	ErrForbidden    = errors.New("Forbidden Access!")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("invalid request")
	ErrUpstream     = errors.New("upstream failure")
)

var sentinels = []error{ErrUnauthorized, ErrForbidden, ErrNotFound, ErrConflict, ErrValidation, ErrUpstream}

// ValidationError carries a caller-facing message and unwraps to ErrValidation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func Invalid(msg string) error {
	return &ValidationError{Msg: msg}
}

// StatusFor returns the HTTP status for an error in the taxonomy.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
