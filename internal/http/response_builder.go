// Package http provides the JSON API server and its handlers.
//
// This file implements the Builder Pattern for constructing JSON responses.
// Every handler writes through it so status codes, headers and the error
// body shape stay consistent.

package http

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the shape of every error response.
// RequestID is set on server errors so a report can be matched to the logs.
type ErrorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
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

// Header sets a custom header.
func (b *JSONResponseBuilder) Header(key, value string) *JSONResponseBuilder {
	b.headers[key] = value
	return b
}

// Body sets the value encoded as the response body. A nil body writes no
// content.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the response.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) error {
	for k, v := range b.headers {
		w.Header().Set(k, v)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return nil
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	return json.NewEncoder(w).Encode(b.body)
}

// Common response patterns as convenience functions

// OK writes v with 200.
func OK(w http.ResponseWriter, v any) {
	NewJSONResponse().Body(v).Write(w)
}

// Created writes v with 201.
func Created(w http.ResponseWriter, v any) {
	NewJSONResponse().Status(http.StatusCreated).Body(v).Write(w)
}

// NoContent writes an empty 204.
func NoContent(w http.ResponseWriter) {
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// ErrorResponse writes {"error": message} with the given status.
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	NewJSONResponse().Status(statusCode).Body(ErrorBody{Error: message}).Write(w)
}

// BadRequestError sends a 400 error response.
func BadRequestError(w http.ResponseWriter, message string) {
	ErrorResponse(w, http.StatusBadRequest, message)
}

// UnauthorizedError sends a 401 error response.
func UnauthorizedError(w http.ResponseWriter, message string) {
	ErrorResponse(w, http.StatusUnauthorized, message)
}

// NotFoundError sends a 404 error response.
func NotFoundError(w http.ResponseWriter, message string) {
	ErrorResponse(w, http.StatusNotFound, message)
}

// ConflictError sends a 409 error response.
func ConflictError(w http.ResponseWriter, message string) {
	ErrorResponse(w, http.StatusConflict, message)
}

// UnprocessableEntityError sends a 422 error response.
func UnprocessableEntityError(w http.ResponseWriter, message string) {
	ErrorResponse(w, http.StatusUnprocessableEntity, message)
}

// TooManyRequestsError sends a 429 error response.
func TooManyRequestsError(w http.ResponseWriter, message string) {
	ErrorResponse(w, http.StatusTooManyRequests, message)
}
