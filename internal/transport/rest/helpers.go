package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/applytrack/applytrack-backend/internal/domain"
)

type errorResponse struct {
	Error  string              `json:"error"`
	Fields []fieldErrorPayload `json:"fields,omitempty"`
}

type fieldErrorPayload struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps domain errors to HTTP statuses. Internal details never
// reach the client; they are logged server-side by the caller.
func writeError(w http.ResponseWriter, log *slog.Logger, r *http.Request, err error) {
	var (
		status = http.StatusInternalServerError
		body   = errorResponse{Error: "internal server error"}
	)

	var valErr *domain.ValidationError
	switch {
	case errors.As(err, &valErr):
		status = http.StatusBadRequest
		body.Error = "validation failed"
		for _, fe := range valErr.Errors {
			body.Fields = append(body.Fields, fieldErrorPayload{Field: fe.Field, Message: fe.Message})
		}
	case errors.Is(err, domain.ErrValidation):
		status, body.Error = http.StatusBadRequest, "validation failed"
	case errors.Is(err, domain.ErrNotFound):
		status, body.Error = http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrConflict):
		status, body.Error = http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrUnauthorized):
		status, body.Error = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		status, body.Error = http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrInvalidProviderResponse):
		status, body.Error = http.StatusBadGateway, "analysis provider returned an invalid response"
	case errors.Is(err, domain.ErrProviderUnavailable):
		status, body.Error = http.StatusBadGateway, "analysis provider unavailable"
	case errors.Is(err, domain.ErrStorageFailure):
		status, body.Error = http.StatusBadGateway, "storage unavailable"
	}

	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, body)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.NewValidationError("body", "malformed JSON")
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domain.NewValidationError(name, "must be a UUID")
	}
	return id, nil
}
