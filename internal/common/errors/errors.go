// Package errors provides standardized error handling for the gateway core.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Input errors (caller mistakes, never retryable)
	ErrCodeUnknownIntent     ErrorCode = "UNKNOWN_INTENT"
	ErrCodeMissingEntity     ErrorCode = "MISSING_ENTITY"
	ErrCodeInvalidParameter  ErrorCode = "INVALID_PARAMETER"
	ErrCodeMissingCredential ErrorCode = "MISSING_CREDENTIAL"

	// Unavailability (feature-gated, surfaced as stub responses)
	ErrCodeAgentUnavailable ErrorCode = "AGENT_UNAVAILABLE"
	ErrCodeToolUnavailable  ErrorCode = "TOOL_UNAVAILABLE"
	ErrCodeToolNotFound     ErrorCode = "TOOL_NOT_FOUND"
	ErrCodeToolNoHandler    ErrorCode = "TOOL_NO_HANDLER"

	// Upstream failures
	ErrCodeBackendTimeout    ErrorCode = "BACKEND_TIMEOUT"
	ErrCodeBackendConnection ErrorCode = "BACKEND_CONNECTION_FAILED"
	ErrCodeBackendFailure    ErrorCode = "BACKEND_REQUEST_FAILED"
	ErrCodeLLMTimeout        ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMFailure        ErrorCode = "LLM_REQUEST_FAILED"

	// Parse/format failures (degrade gracefully)
	ErrCodeIntentParsingFailed ErrorCode = "INTENT_PARSING_FAILED"
	ErrCodeEntityParsingFailed ErrorCode = "ENTITY_PARSING_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

func newStandardError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now(),
	}
}

// NewInputError creates a non-retryable caller error (bad intent name,
// missing required entity, invalid parameter value).
func NewInputError(code ErrorCode, message string) *StandardError {
	return newStandardError(code, message, "", false)
}

// NewUnavailableError marks a feature-gated capability that is registered
// but not enabled yet. Callers should surface this as a stub, not a failure.
func NewUnavailableError(code ErrorCode, message string) *StandardError {
	return newStandardError(code, message, "", false)
}

// NewTimeoutError wraps an upstream deadline expiry.
func NewTimeoutError(service string, err error) *StandardError {
	code := ErrCodeBackendTimeout
	if service == "llm" {
		code = ErrCodeLLMTimeout
	}
	return newStandardError(code, fmt.Sprintf("%s request timed out", service), err.Error(), true)
}

// NewConnectionError wraps an upstream connection failure.
func NewConnectionError(service string, err error) *StandardError {
	return newStandardError(ErrCodeBackendConnection, fmt.Sprintf("cannot connect to %s", service), err.Error(), true)
}

// NewUpstreamError wraps any other upstream failure.
func NewUpstreamError(service string, err error) *StandardError {
	code := ErrCodeBackendFailure
	if service == "llm" {
		code = ErrCodeLLMFailure
	}
	return newStandardError(code, fmt.Sprintf("%s request failed", service), err.Error(), false)
}

// NewParseError marks malformed model output; callers degrade rather than fail.
func NewParseError(code ErrorCode, err error) *StandardError {
	return newStandardError(code, "failed to parse model output", err.Error(), false)
}

// IsRetryable reports whether err carries a retryable StandardError.
func IsRetryable(err error) bool {
	if se, ok := err.(*StandardError); ok {
		return se.Retryable
	}
	return false
}

// CodeOf extracts the error code, or empty when err is not standardized.
func CodeOf(err error) ErrorCode {
	if se, ok := err.(*StandardError); ok {
		return se.Code
	}
	return ""
}
