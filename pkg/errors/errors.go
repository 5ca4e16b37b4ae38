// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with rich context for Planwright.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode classifies Planwright errors for monitoring and recovery.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeConfig indicates malformed or inconsistent configuration.
	CodeConfig ErrorCode = "CONFIG_ERROR"

	// CodeNotFound indicates a persona or task lookup failed.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeInvalidInput indicates the input was invalid.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInsufficientInput indicates drafting was attempted before the
	// mandatory requirement topics were answered.
	CodeInsufficientInput ErrorCode = "INSUFFICIENT_INPUT"

	// CodeNoChange indicates a revision cycle produced an identical document.
	CodeNoChange ErrorCode = "NO_CHANGE"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeLLMError indicates an LLM provider error.
	CodeLLMError ErrorCode = "LLM_ERROR"

	// CodeMemoryError indicates a conversation store error.
	CodeMemoryError ErrorCode = "MEMORY_ERROR"
)

// PlanwrightError is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type PlanwrightError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Attributes  map[string]string
	Recoverable bool
	StatusCode  int
}

// Error implements the error interface.
func (e *PlanwrightError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *PlanwrightError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *PlanwrightError) MarshalJSON() ([]byte, error) {
	type Alias PlanwrightError
	return json.Marshal(&struct {
		Message     string `json:"message"`
		Code        string `json:"code"`
		Err         string `json:"error,omitempty"`
		Recoverable bool   `json:"recoverable"`
		*Alias
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Err:         fmt.Sprintf("%v", e.Err),
		Recoverable: e.Recoverable,
		Alias:       (*Alias)(e),
	})
}

// New creates a new PlanwrightError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *PlanwrightError {
	return &PlanwrightError{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]interface{}),
		Attributes: make(map[string]string),
		StatusCode: codeToStatusCode(code),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *PlanwrightError) WithContext(key string, value interface{}) *PlanwrightError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithAttribute adds a string attribute for OTEL traces.
// Returns the error for method chaining.
func (e *PlanwrightError) WithAttribute(key, value string) *PlanwrightError {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *PlanwrightError) WithRecoverable(recoverable bool) *PlanwrightError {
	e.Recoverable = recoverable
	return e
}

// AsPlanwrightError attempts to convert an error to a PlanwrightError.
// Returns the error as PlanwrightError if it is one, or wraps it otherwise.
func AsPlanwrightError(err error) *PlanwrightError {
	if err == nil {
		return nil
	}
	var pe *PlanwrightError
	if errors.As(err, &pe) {
		return pe
	}
	return New(CodeInternal, "wrapped error", err)
}

// HasCode reports whether err carries the given error code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	var pe *PlanwrightError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Code == code
}

// IsConfig reports whether err is a configuration error.
func IsConfig(err error) bool { return HasCode(err, CodeConfig) }

// IsNotFound reports whether err is a lookup failure.
func IsNotFound(err error) bool { return HasCode(err, CodeNotFound) }

// IsInsufficientInput reports whether err signals missing mandatory topics.
func IsInsufficientInput(err error) bool { return HasCode(err, CodeInsufficientInput) }

// RecoverableString returns "true" or "false" as a string for observability.
func (e *PlanwrightError) RecoverableString() string {
	if e.Recoverable {
		return "true"
	}
	return "false"
}

// codeToStatusCode maps error codes to HTTP-style status codes.
func codeToStatusCode(code ErrorCode) int {
	switch code {
	case CodeNotFound:
		return 404
	case CodeInvalidInput, CodeConfig, CodeInsufficientInput:
		return 400
	case CodeTimeout:
		return 408
	default:
		return 500
	}
}
