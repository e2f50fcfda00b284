// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
)

// RespondError maps domain errors to HTTP responses using RFC7807. Only the
// sentinel text reaches the client; wrapped causes stay server side.
func RespondError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		ValidationProblem(w, FieldErrors(verrs))
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Tidak Dijumpai", ErrNotFound.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Rekod Bertindih", ErrDuplicate.Error())
	case errors.Is(err, ErrConflict):
		Problem(w, http.StatusConflict, "Konflik", detailOf(err))
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Pengesahan Gagal", detailOf(err))
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Akses Ditolak", "")
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Tidak Disahkan", "")
	default:
		Problem(w, http.StatusInternalServerError, "Ralat Dalaman", "")
	}
}

// IsClientError reports whether RespondError maps err to a 4xx problem.
func IsClientError(err error) bool {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return true
	}
	for _, target := range []error{ErrNotFound, ErrDuplicate, ErrConflict, ErrValidation, ErrForbidden, ErrUnauthorized} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// FieldErrors flattens validator errors into field -> tag pairs.
func FieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

// detailOf returns the message of a domain error. Domain packages wrap
// sentinels with user-facing context only, never with store errors.
func detailOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
