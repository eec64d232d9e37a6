package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/ternsecure/tern-admin/internal/errors"
)

// maxJSONBody bounds request bodies accepted by DecodeJSON.
const maxJSONBody = 1 << 20

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_json",
			Err:     apperrors.Wrap(err, apperrors.ErrCodeValidation, "request body must be valid JSON"),
		})
		return false
	}

	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError to adhere to the ≤3 params guideline.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// WriteError writes a JSON error response using ErrorParams.
// Only the AppError's public message reaches the client; other errors are reduced to the status text.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	body := errorBody{
		Error:   p.ErrCode,
		Message: apperrors.PublicMessage(p.Err, http.StatusText(p.Code)),
		Field:   apperrors.GetField(p.Err),
	}
	WriteJSON(w, p.Code, body)
}

// WriteAppError maps err onto a status code and error code and writes it.
func WriteAppError(w http.ResponseWriter, err error) {
	status, code := statusForError(err)
	WriteError(w, ErrorParams{Code: status, ErrCode: code, Err: err})
}

// statusForError maps AppError codes to HTTP status codes. Unclassified errors are 500.
func statusForError(err error) (int, string) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, string(apperrors.ErrCodeInternal)
	}
	switch appErr.Code {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound, string(appErr.Code)
	case apperrors.ErrCodeConflict:
		return http.StatusConflict, string(appErr.Code)
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest, string(appErr.Code)
	case apperrors.ErrCodeUnauthenticated:
		return http.StatusUnauthorized, string(appErr.Code)
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden, string(appErr.Code)
	case apperrors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable, string(appErr.Code)
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout, string(appErr.Code)
	case apperrors.ErrCodeCanceled:
		// nginx's "client closed request"
		return 499, string(appErr.Code)
	default:
		return http.StatusInternalServerError, string(apperrors.ErrCodeInternal)
	}
}
