package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "savora/pkg/domain-errors"
)

// Validatable is implemented by request types that can validate and
// normalize themselves after decoding.
type Validatable interface {
	Validate() error
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to its HTTP status and OAuth-style error
// body. Internal errors omit the description so internals never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	if code == dErrors.CodeInternal {
		body["error"] = "internal_error"
	} else {
		body["error_description"] = dErrors.MessageOf(err)
	}
	WriteJSON(w, dErrors.HTTPStatus(err), body)
}

// DecodeAndPrepare decodes the JSON request body into T and runs its
// validation, writing the error response itself on failure. The boolean
// reports whether the handler may proceed.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, requestID string) (PT, bool) {
	req := PT(new(T))
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		logger.WarnContext(r.Context(), "request body decode failed",
			"request_id", requestID, "error", err)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return nil, false
	}
	if err := req.Validate(); err != nil {
		WriteError(w, err)
		return nil, false
	}
	return req, true
}
