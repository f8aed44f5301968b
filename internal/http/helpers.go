package http

import (
	"errors"
	"net/http"
	"strings"

	"motocusto/internal/core"
	applog "motocusto/internal/log"
	"motocusto/internal/middleware/trace"
	"motocusto/internal/services"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// statusFor maps domain and service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case core.IsValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrNotEnoughEntries):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrAdvisorUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError turns err into a JSON error response. Server errors are logged
// and their details are not sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		applog.FromContext(r.Context()).Failure(r.Context(), "request failed", err,
			applog.FieldPath, r.URL.Path, applog.FieldStatusCode, status)
	}
	switch status {
	case http.StatusInternalServerError:
		serverError(w, r, status, "internal error")
	case http.StatusNotFound:
		NotFoundError(w, "not found")
	case http.StatusBadGateway:
		serverError(w, r, status, services.ErrAdvisorUnavailable.Error())
	default:
		ErrorResponse(w, status, err.Error())
	}
}

func serverError(w http.ResponseWriter, r *http.Request, status int, message string) {
	NewJSONResponse().Status(status).Body(ErrorBody{
		Error:     message,
		RequestID: trace.GetRequestID(r.Context()),
	}).Write(w)
}

// decodeError answers a DecodeJSON failure: 422 for values that parse but do
// not validate, 400 for everything else.
func decodeError(w http.ResponseWriter, err error) {
	if core.IsValidationError(err) {
		UnprocessableEntityError(w, err.Error())
		return
	}
	BadRequestError(w, "invalid request body: "+err.Error())
}
