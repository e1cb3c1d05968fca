package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Sentinel errors for the domain layer. Services wrap these so handlers can
// translate business failures into status codes without inspecting text.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// RespondError maps domain errors to HTTP responses.
//
// Not-found deliberately covers both "does not exist" and "owned by another
// tenant" so the response never leaks cross-tenant existence. Business-rule
// conflicts surface as 400 with the rule in the message.
func RespondError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		Error(w, http.StatusBadRequest, "validation failed", flattenValidation(verrs)...)
		return
	}

	switch {
	case errors.Is(err, ErrNotFound):
		Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, ErrValidation):
		Error(w, http.StatusBadRequest, userMessage(err, "validation failed"))
	case errors.Is(err, ErrConflict):
		Error(w, http.StatusBadRequest, userMessage(err, "conflict"))
	case errors.Is(err, ErrForbidden):
		Error(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, ErrUnauthorized):
		Error(w, http.StatusUnauthorized, "unauthorized")
	default:
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

func flattenValidation(verrs validator.ValidationErrors) []string {
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		detail := strings.ToLower(fe.Field()) + ": failed " + fe.Tag()
		if fe.Param() != "" {
			detail += "=" + fe.Param()
		}
		details = append(details, detail)
	}
	return details
}

// userMessage returns the wrapped error text, which is safe to show for
// business-rule failures, falling back when there is nothing more specific.
func userMessage(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
