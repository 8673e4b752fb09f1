// Package http exposes the budget service as a JSON API.
//
// This file implements the Builder Pattern for constructing JSON responses.
// Handlers build a response with a status, optional headers and a payload,
// and write it in one place so every endpoint encodes errors the same way.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"budgetviz/internal/core"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	data       any
	warning    string
}

// errorBody is the payload of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// envelope wraps successful payloads so a partial-success warning can ride
// along with the data.
type envelope struct {
	Data    any    `json:"data"`
	Warning string `json:"warning,omitempty"`
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the payload.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.data = v
	return b
}

// Warning attaches a message for a change that was applied but not saved.
func (b *JSONResponseBuilder) Warning(msg string) *JSONResponseBuilder {
	b.warning = msg
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)

	if b.statusCode == http.StatusNoContent {
		return
	}

	var payload any
	switch d := b.data.(type) {
	case errorBody:
		payload = d
	case nil:
		if b.warning == "" {
			return
		}
		payload = envelope{Warning: b.warning}
	default:
		payload = envelope{Data: d, Warning: b.warning}
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, errType, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Data(errorBody{Error: errorDetail{Message: message, Type: errType}})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "bad_request", message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, "validation", message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal", message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "not_found", message)
}

// TooManyRequestsError creates a 429 response asking the client to retry.
func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded. Please try again later.").
		Header("Retry-After", "60")
}

// MutationResponse answers a state-changing request. A persistence failure
// still reports the applied change, with a warning; any other error is
// mapped by FromError.
func MutationResponse(status int, data any, err error) *JSONResponseBuilder {
	if err == nil {
		return NewJSONResponse().Status(status).Data(data)
	}
	if errors.Is(err, core.ErrPersistence) {
		return NewJSONResponse().Status(http.StatusOK).Data(data).Warning(err.Error())
	}
	return FromError(err)
}

// FromError maps a service error to a response: validation errors are 422,
// unknown ids 404, everything else 500.
func FromError(err error) *JSONResponseBuilder {
	switch {
	case core.IsValidation(err):
		return UnprocessableEntityError(err.Error())
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError(err.Error())
	default:
		return InternalServerError("internal error")
	}
}
