package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/comcastmike/rdkservices/internal/api"
	"github.com/comcastmike/rdkservices/internal/hal"
	"github.com/comcastmike/rdkservices/internal/settings"
)

// RespondJSON sends a JSON response with the given status code and data
func RespondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// RespondError sends {"success": false, "error": ...} with the status
// matching err.
func RespondError(w http.ResponseWriter, err error) {
	RespondJSON(w, StatusForError(err), map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
}

// StatusForError maps dispatch errors to HTTP status codes.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, api.ErrUnknownMethod):
		return http.StatusNotFound
	case errors.Is(err, settings.ErrInvalidParam), errors.Is(err, settings.ErrUnknownPort):
		return http.StatusBadRequest
	case errors.Is(err, hal.ErrNotSupported):
		return http.StatusNotImplemented
	case errors.Is(err, settings.ErrHardwareCall):
		return http.StatusBadGateway
	case errors.Is(err, settings.ErrStateUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes an optional JSON object body into v. An empty body
// leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		return errors.Wrapf(settings.ErrInvalidParam, "invalid request body: %v", err)
	}
	return nil
}
