package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable code and a message for people.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorKinds maps domain sentinels to status codes and body codes, checked
// in order with errors.Is.
var errorKinds = []struct {
	sentinel error
	status   int
	code     string
}{
	{domain.ErrValidation, http.StatusUnprocessableEntity, "validation_error"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrPermissionDenied, http.StatusForbidden, "permission_denied"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
}

// writeError translates err into a status and error body. Unrecognised
// errors are logged and reported as a generic 500 so internals never leak.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := s.errorBody(r, err)
	writeJSON(w, status, body)
}

func (s *Server) errorBody(r *http.Request, err error) (int, ErrorResponse) {
	for _, k := range errorKinds {
		if errors.Is(err, k.sentinel) {
			return k.status, ErrorResponse{Error: ErrorDetail{Code: k.code, Message: unwrapMessage(err, k.sentinel)}}
		}
	}
	s.log.ErrorContext(r.Context(), "unhandled error",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	return http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{Code: "internal_error", Message: "something went wrong, please try again"}}
}

// unwrapMessage extracts the human-readable part that follows the sentinel.
// e.g. "service.GroupService.Join: validation error: code must be 6 digits" → "code must be 6 digits"
// A bare sentinel yields its own text.
func unwrapMessage(err, sentinel error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.Index(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return sentinel.Error()
}

// requestBody returns an ErrorResponse for a request rejected before it
// reaches the service layer (e.g. malformed JSON or a bad path parameter).
func requestBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: message}}
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON object into dst. On failure it writes the
// error response and returns false. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: ErrorDetail{Code: "payload_too_large", Message: "request body too large"}})
		case errors.Is(err, io.EOF):
			writeJSON(w, http.StatusUnprocessableEntity, requestBody("request body is required"))
		default:
			writeJSON(w, http.StatusUnprocessableEntity, requestBody("malformed JSON: "+err.Error()))
		}
		return false
	}
	return true
}
