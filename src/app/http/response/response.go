// Package response defines the JSON bodies every HTTP endpoint answers with.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pulljoker/src/core/domain"
)

// Success represents a successful response with data.
type Success struct {
	Data any `json:"data"`
}

// Error represents an error response.
type Error struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	// Code is a machine-readable error code (e.g., "NOT_FOUND", "RULE_VIOLATION")
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Field is the field that caused the error (for validation errors)
	Field string `json:"field,omitempty"`

	// RequestID is the request ID for debugging
	RequestID string `json:"request_id,omitempty"`
}

// OK sends a 200 response with data.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Success{Data: data})
}

// Created sends a 201 response with the created resource.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Success{Data: data})
}

func fail(c *gin.Context, status int, code, message, field, requestID string) {
	c.JSON(status, Error{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Field:     field,
			RequestID: requestID,
		},
	})
}

// BadRequest sends a 400 response.
func BadRequest(c *gin.Context, message string, requestID string) {
	fail(c, http.StatusBadRequest, "BAD_REQUEST", message, "", requestID)
}

// ValidationError sends a 400 response for malformed input.
func ValidationError(c *gin.Context, field, message, requestID string) {
	fail(c, http.StatusBadRequest, "VALIDATION_ERROR", message, field, requestID)
}

// RuleViolation sends a 422 response for a command the game rules reject.
func RuleViolation(c *gin.Context, message, requestID string) {
	fail(c, http.StatusUnprocessableEntity, "RULE_VIOLATION", message, "", requestID)
}

// NotFound sends a 404 response.
func NotFound(c *gin.Context, message, requestID string) {
	fail(c, http.StatusNotFound, "NOT_FOUND", message, "", requestID)
}

// Conflict sends a 409 response.
func Conflict(c *gin.Context, message, requestID string) {
	fail(c, http.StatusConflict, "CONFLICT", message, "", requestID)
}

// Forbidden sends a 403 response.
func Forbidden(c *gin.Context, message, requestID string) {
	fail(c, http.StatusForbidden, "FORBIDDEN", message, "", requestID)
}

// Unauthorized sends a 401 response.
func Unauthorized(c *gin.Context, message, requestID string) {
	fail(c, http.StatusUnauthorized, "UNAUTHORIZED", message, "", requestID)
}

// InternalError sends a 500 response.
func InternalError(c *gin.Context, requestID string) {
	fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", "", requestID)
}

// FromDomainError maps a domain error category to a status code. Anything
// unclassified is reported as a 500 without leaking its message.
func FromDomainError(c *gin.Context, err error, requestID string) {
	var de *domain.DomainError
	errors.As(err, &de)

	switch {
	case domain.IsNotFound(err):
		NotFound(c, err.Error(), requestID)
	case domain.IsValidationError(err):
		if de != nil && de.Kind == nil {
			ValidationError(c, de.Field, de.Message, requestID)
			return
		}
		RuleViolation(c, err.Error(), requestID)
	case domain.IsConflict(err):
		Conflict(c, err.Error(), requestID)
	case domain.IsForbidden(err):
		Forbidden(c, err.Error(), requestID)
	case domain.IsUnauthorized(err):
		Unauthorized(c, err.Error(), requestID)
	default:
		InternalError(c, requestID)
	}
}
