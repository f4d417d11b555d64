package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/trizly/lumi-link/internal/errors"
)

// Common error messages.
const (
	MsgInvalidJSON       = "Invalid JSON"
	MsgPayloadTooLarge   = "Payload too large"
	MsgInternalError     = "Internal error"
	MsgUnauthorized      = "Unauthorized"
	MsgRateLimitExceeded = "Rate limit exceeded"
	MsgInvalidSignature  = "Invalid signature"
	MsgNotFound          = "Not found"
)

// DecodeJSON decodes the request body into dst. Unknown fields are ignored
// because the relay and older bots send extra keys.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.Validation(MsgPayloadTooLarge).WithStatus(http.StatusRequestEntityTooLarge)
		}
		if errors.Is(err, io.EOF) {
			return apperrors.Validation(MsgInvalidJSON)
		}
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, MsgInvalidJSON)
	}
	return nil
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorStyle selects the JSON error body shape.
type ErrorStyle int

const (
	// OriginErrors writes {"error": message}.
	OriginErrors ErrorStyle = iota
	// RelayErrors writes {"error": message, "status": code}.
	RelayErrors
)

// WriteErrorMessage writes a JSON error body in the given style.
func WriteErrorMessage(w http.ResponseWriter, style ErrorStyle, code int, msg string) {
	if style == RelayErrors {
		WriteJSON(w, code, map[string]any{"error": msg, "status": code})
		return
	}
	WriteJSON(w, code, map[string]string{"error": msg})
}

// WriteError maps err to a status and writes it. Only the AppError message
// reaches the client; causes stay in the logs.
func WriteError(w http.ResponseWriter, style ErrorStyle, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		WriteErrorMessage(w, style, http.StatusInternalServerError, MsgInternalError)
		return
	}
	WriteErrorMessage(w, style, appErr.HTTPStatus(), appErr.Message)
}
