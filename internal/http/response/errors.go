package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diagnosis/party-hub/internal/domain"
	"github.com/diagnosis/party-hub/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	JSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// WriteErrorWithDetails writes a structured JSON error response with additional details
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, message, code, details string) {
	JSON(w, statusCode, ErrorResponse{Error: message, Code: code, Details: details})
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// Status is the body of most successful mutations.
type Status struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func Success(w http.ResponseWriter, message string) {
	JSON(w, http.StatusOK, Status{Status: "success", Message: message})
}

// Common error codes
const (
	CodeInvalidInput   = "INVALID_INPUT"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeRateLimit      = "RATE_LIMIT_EXCEEDED"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeUnavailable    = "UNAVAILABLE"
	CodeUnprocessable  = "UNPROCESSABLE"
	CodePartyFrozen    = "PARTY_FROZEN"
	CodeDeadlinePassed = "DEADLINE_PASSED"
	CodePartyFull      = "PARTY_FULL"
	CodeAlreadyInvited = "ALREADY_INVITED"
)

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}

func Unavailable(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusServiceUnavailable, message, CodeUnavailable)
}

// FromError maps a domain error to its status code. Messages of sentinel
// errors are shown as-is; anything unrecognised is logged and becomes a
// generic 500.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	msg := publicMessage(err)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		BadRequest(w, msg)
	case errors.Is(err, domain.ErrNotFound):
		NotFound(w, msg)
	case errors.Is(err, domain.ErrForbidden):
		Forbidden(w, msg)
	case errors.Is(err, domain.ErrPartyFrozen):
		WriteError(w, http.StatusForbidden, msg, CodePartyFrozen)
	case errors.Is(err, domain.ErrDeadlinePassed):
		WriteError(w, http.StatusForbidden, msg, CodeDeadlinePassed)
	case errors.Is(err, domain.ErrPartyFull):
		WriteError(w, http.StatusConflict, msg, CodePartyFull)
	case errors.Is(err, domain.ErrAlreadyInvited):
		WriteError(w, http.StatusConflict, msg, CodeAlreadyInvited)
	default:
		logger.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
		InternalError(w, "Internal server error")
	}
}

// publicMessage unwraps to the text a service attached for the client.
// Services return errors built with domain.Errorf, whose message is meant
// to be shown.
func publicMessage(err error) string {
	var pe *domain.PublicError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}
