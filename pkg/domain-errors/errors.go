// Package domainerrors defines the small, stable error vocabulary the gateway
// exposes to callers. Lower layers wrap infrastructure failures in an *Error so
// the transport can translate them without inspecting transport internals.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable error identifier returned in the "error" field.
type Code string

const (
	// auth
	CodeUnauthorized Code = "unauthorized"

	// configuration
	CodeOptimizerUnavailable Code = "optimizer_unavailable"

	// input
	CodeInvalidJSON          Code = "invalid_json"
	CodeInvalidRequest       Code = "invalid_request"
	CodeInvalidLimit         Code = "invalid_limit"
	CodeInvalidStartIndex    Code = "invalid_start_index"
	CodeInvalidEdgePenalties Code = "invalid_edge_penalties"
	CodePayloadTooLarge      Code = "payload_too_large"

	// upstream
	CodeUpstreamTimeout Code = "upstream_timeout"
	CodeRequestFailed   Code = "request_failed"

	// internal
	CodePenaltyGenerationFailed Code = "penalty_generation_failed"
	CodeInternal                Code = "internal_error"
)

// Issue describes one field-level validation problem.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error is a gateway error carrying a Code, a caller-safe message and, for
// schema failures, the list of offending fields.
type Error struct {
	Code    Code
	Message string
	Issues  []Issue
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// WithIssues returns a copy of e with the given issues attached.
func (e *Error) WithIssues(issues []Issue) *Error {
	cp := *e
	cp.Issues = append([]Issue(nil), issues...)
	return &cp
}

// CodeOf extracts the Code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}

// HTTPStatus maps a code to its HTTP status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeOptimizerUnavailable:
		return http.StatusServiceUnavailable
	case CodeInvalidJSON, CodeInvalidRequest, CodeInvalidLimit,
		CodeInvalidStartIndex, CodeInvalidEdgePenalties:
		return http.StatusBadRequest
	case CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeUpstreamTimeout:
		return http.StatusGatewayTimeout
	case CodeRequestFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsInternal reports whether the code belongs to the internal category, whose
// descriptions are never returned to callers.
func IsInternal(code Code) bool {
	return code == CodeInternal || code == CodePenaltyGenerationFailed
}
