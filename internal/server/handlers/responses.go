package handlers

// responses.go provides helper functions for sending HTTP responses from the API handlers.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/utilhub/nfequery/internal/dfe"
	"github.com/utilhub/nfequery/internal/logger"
)

// ErrorResponse is the JSON error body returned by every failing endpoint.
type ErrorResponse struct {

	// The HTTP method used to make the request
	HTTPMethod string `json:"httpMethod" example:"POST"`

	// The URI that was requested
	RequestURI string `json:"requestUri" example:"/v1/queries"`

	// The HTTP status code returned
	StatusCode int `json:"statusCode" example:"400"`

	// A standard short description corresponding to the HTTP status code
	StatusCodeText string `json:"statusCodeText" example:"Bad Request"`

	// The request id, for correlating with server logs
	RequestID string `json:"requestId,omitempty"`

	// The DateTime corresponding to the error occurring
	ErrorDateTime string `json:"errorDateTime"`

	// An array of errors providing more detail about the root cause
	Errors []DetailedError `json:"errors"`
}

// DetailedError describes the root cause of a failed request.
type DetailedError struct {
	// the failing pipeline stage, e.g. validation, identity, protocol
	ErrorCode    string `json:"errorCode" example:"validation"`
	ErrorMessage string `json:"errorMessage"`

	// the authority's own status code and message, present for protocol errors
	UpstreamStatusCode    string `json:"upstreamStatusCode,omitempty" example:"137"`
	UpstreamStatusMessage string `json:"upstreamStatusMessage,omitempty"`
}

// NewErrorResponse builds an error response with a single detail entry.
// Middleware uses this directly for errors with no pipeline stage (rate
// limiting, oversized requests).
func NewErrorResponse(r *http.Request, statusCode int, code, message string) *ErrorResponse {
	return &ErrorResponse{
		HTTPMethod:     r.Method,
		RequestURI:     r.RequestURI,
		StatusCode:     statusCode,
		StatusCodeText: http.StatusText(statusCode),
		RequestID:      middleware.GetReqID(r.Context()),
		ErrorDateTime:  time.Now().UTC().Format(time.RFC3339),
		Errors: []DetailedError{
			{ErrorCode: code, ErrorMessage: message},
		},
	}
}

// MapErrorToResponse maps pipeline errors to an API error response,
// establishing the HTTP status from the failing stage.
func MapErrorToResponse(err error, r *http.Request) *ErrorResponse {
	var distErr *dfe.DistError
	if !errors.As(err, &distErr) {
		reqLogger := logger.ContextRequestLogger(r.Context())
		reqLogger.Error("unmapped error type in MapErrorToResponse",
			slog.String("error", err.Error()),
		)
		return NewErrorResponse(r, http.StatusInternalServerError, "internal", "An internal error occurred")
	}

	var statusCode int
	switch distErr.Code() {
	case dfe.ErrCodeValidation:
		statusCode = http.StatusBadRequest
	case dfe.ErrCodeIdentity, dfe.ErrCodeProtocol:
		// the request was well-formed but cannot be satisfied as stated
		statusCode = http.StatusUnprocessableEntity
	case dfe.ErrCodeTransport, dfe.ErrCodeDecode, dfe.ErrCodeExtraction:
		statusCode = http.StatusBadGateway
	default:
		statusCode = http.StatusInternalServerError
	}

	response := NewErrorResponse(r, statusCode, string(distErr.Code()), distErr.Error())
	response.Errors[0].UpstreamStatusCode = distErr.StatusCode()
	response.Errors[0].UpstreamStatusMessage = distErr.StatusMessage()
	return response
}

// RespondWithErrorResponse sends a JSON error response and logs the full
// error details server-side.
func RespondWithErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse := MapErrorToResponse(err, r)

	reqLogger := logger.ContextRequestLogger(r.Context())
	reqLogger.Warn("request failed",
		slog.String("error", err.Error()),
		slog.Int("status_code", errorResponse.StatusCode),
		slog.String("request_id", errorResponse.RequestID),
	)

	RespondWithJSONPayload(w, errorResponse.StatusCode, errorResponse)
}

// RespondWithJSONPayload sends a JSON response with the given status code.
func RespondWithJSONPayload(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			// headers are already written, only log
			slog.Error("failed to encode JSON response",
				slog.String("error", err.Error()),
			)
		}
	}
}
