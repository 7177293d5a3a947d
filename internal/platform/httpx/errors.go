package httpx

import (
	"errors"
	"net/http"

	"github.com/orgward/orgward/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Hierarchy corruption is reported as 500: it is a data-integrity failure,
// not a legitimate authorization outcome.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrHasChildren):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrAccountLocked):
		Problem(w, http.StatusLocked, "Account Locked", err.Error())
	case errors.Is(err, shared.ErrInvalidHierarchy):
		Problem(w, http.StatusInternalServerError, "Invalid Hierarchy", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
