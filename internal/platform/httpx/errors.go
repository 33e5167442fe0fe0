package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/rpac/rpac/internal/shared"
)

// ErrorBody is the uniform failure payload.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a single failure.
type ErrorDetail struct {
	Type             string            `json:"type"`
	Code             int               `json:"code"`
	Message          string            `json:"message"`
	Timestamp        string            `json:"timestamp"`
	Path             string            `json:"path"`
	Method           string            `json:"method"`
	ErrorID          string            `json:"error_id,omitempty"`
	Details          string            `json:"details,omitempty"`
	ValidationErrors []ValidationError `json:"validation_errors,omitempty"`
}

// ValidationError reports a single rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Responder maps domain errors onto the uniform failure payload.
type Responder struct {
	Logger *slog.Logger
	// IncludeDetails exposes internal error text on 500 responses.
	IncludeDetails bool
	Now            func() time.Time
}

// Classify returns the failure type and HTTP status for err.
func Classify(err error) (string, int) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, shared.ErrUnauthenticated):
		return "Unauthenticated", http.StatusUnauthorized
	case errors.Is(err, shared.ErrInvalidCredentials):
		return "InvalidCredentials", http.StatusUnauthorized
	case errors.Is(err, shared.ErrForbidden):
		return "Forbidden", http.StatusForbidden
	case errors.Is(err, shared.ErrDuplicateUsername):
		return "DuplicateUsername", http.StatusBadRequest
	case errors.Is(err, shared.ErrDuplicateName):
		return "DuplicateName", http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFound):
		return "NotFound", http.StatusNotFound
	case errors.Is(err, shared.ErrValidation), errors.As(err, &verrs):
		return "ValidationError", http.StatusUnprocessableEntity
	case errors.Is(err, shared.ErrMethodNotAllowed):
		return "MethodNotAllowed", http.StatusMethodNotAllowed
	case errors.Is(err, shared.ErrRateLimited):
		return "RateLimitExceeded", http.StatusTooManyRequests
	case errors.Is(err, shared.ErrStoreUnavailable):
		return "DatabaseError", http.StatusInternalServerError
	default:
		return "InternalServerError", http.StatusInternalServerError
	}
}

// RespondError writes err using the uniform failure shape. Server-side
// failures get a short incident id that is logged alongside the cause.
func (rs *Responder) RespondError(w http.ResponseWriter, r *http.Request, err error) {
	kind, status := Classify(err)
	detail := ErrorDetail{
		Type:      kind,
		Code:      status,
		Message:   err.Error(),
		Timestamp: rs.now().Format(time.RFC3339),
		Path:      r.URL.Path,
		Method:    r.Method,
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		detail.Message = shared.ErrValidation.Error()
		for _, fe := range verrs {
			detail.ValidationErrors = append(detail.ValidationErrors, ValidationError{
				Field:   fe.Field(),
				Message: fe.Error(),
				Type:    fe.Tag(),
			})
		}
	}

	logger := rs.logger()
	if status >= http.StatusInternalServerError {
		detail.ErrorID = NewErrorID()
		if kind == "DatabaseError" {
			detail.Message = "database operation failed"
		} else {
			detail.Message = "internal server error"
		}
		if rs.IncludeDetails {
			detail.Details = err.Error()
		}
		logger.Error("request failed",
			slog.String("error_id", detail.ErrorID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err),
		)
	} else {
		logger.Warn("request rejected",
			slog.Int("status", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("reason", err.Error()),
		)
	}

	JSON(w, status, ErrorBody{Error: detail})
}

// NewErrorID returns a short identifier used to correlate a 500 response with logs.
func NewErrorID() string {
	return uuid.NewString()[:8]
}

func (rs *Responder) now() time.Time {
	if rs != nil && rs.Now != nil {
		return rs.Now()
	}
	return time.Now()
}

func (rs *Responder) logger() *slog.Logger {
	if rs != nil && rs.Logger != nil {
		return rs.Logger
	}
	return slog.Default()
}
