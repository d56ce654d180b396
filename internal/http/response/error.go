package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rezkam/mono/internal/domain"
)

// ErrorDetail carries the code/message/details triple from §6.2's envelope.
type ErrorDetail struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []ErrorField `json:"details,omitempty"`
}

// ErrorField describes one field-level validation finding.
type ErrorField struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// Error sends a generic error envelope at the given status code.
func Error(w http.ResponseWriter, r *http.Request, code, message string, statusCode int) {
	write(w, r, statusCode, Envelope{Success: false, Error: &ErrorDetail{Code: code, Message: message}})
}

// InternalError logs err server-side and returns a generic 500, never
// leaking err's text to the client.
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		slog.ErrorContext(r.Context(), "httpapi: internal error", "error", err)
	}
	Error(w, r, "INTERNAL_ERROR", "an internal error occurred", http.StatusInternalServerError)
}

// FromDomainError maps a domain/jobmanager error to the §6.2/§7 HTTP
// contract: code, status, and (for validation) field-level details.
func FromDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		env := Envelope{
			Success: false,
			Error: &ErrorDetail{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
				Details: toErrorFields(ve.Errors),
			},
		}
		write(w, r, http.StatusUnprocessableEntity, env)
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidScheduleTime):
		Error(w, r, "INVALID_SCHEDULE_TIME", err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrDuplicateContent):
		Error(w, r, "DUPLICATE_CONTENT", err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrJobNotFound):
		Error(w, r, "JOB_NOT_FOUND", "job not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrStorage):
		Error(w, r, "STORAGE_ERROR", "a storage error occurred", http.StatusInternalServerError)
	default:
		InternalError(w, r, err)
	}
}

func toErrorFields(issues []domain.FieldIssue) []ErrorField {
	out := make([]ErrorField, 0, len(issues))
	for _, i := range issues {
		out = append(out, ErrorField{Field: i.Field, Issue: i.Issue})
	}
	return out
}
