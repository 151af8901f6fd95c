package authapi

import (
	"errors"
	"net/http"

	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/apperr"
)

func statusFor(kind error) int {
	switch kind {
	case apperr.ErrValidation:
		return http.StatusBadRequest
	case apperr.ErrConflict:
		return http.StatusConflict
	case apperr.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperr.ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error envelope for err. Failures on the refresh route
// clear both auth cookies first.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if r.URL.Path == h.refreshPath() {
		h.clearAuthCookies(w)
	}

	kind := apperr.KindOf(err)
	if kind == apperr.ErrInternal {
		var ae *apperr.Error
		op := ""
		if errors.As(err, &ae) {
			op = ae.Op
		}
		h.log.ErrorContext(r.Context(), "authapi.internal",
			"op", op,
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
	}

	writeJSON(w, statusFor(kind), errorResponse{Error: apiError{
		Code:    kind.Error(),
		Message: apperr.Message(err),
		Fields:  apperr.FieldsOf(err),
	}})
}

func badBody(op string) error {
	return &apperr.Error{Op: op, Kind: apperr.ErrValidation, Msg: "invalid request body"}
}
