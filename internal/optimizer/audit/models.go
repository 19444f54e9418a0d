// Package audit records optimizer runs and admin decisions. Writes are best
// effort: failures are logged and never reach the caller.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of an optimizer run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Run is one /optimize/route invocation. Summaries are JSON-encodable values
// produced by the sanitizer.
type Run struct {
	ID              uuid.UUID
	TraceID         string
	UserID          string
	Status          Status
	RequestSummary  any
	ResponseSummary any
	ErrorCode       string
	DurationMs      int64
	LocationCount   int
	StartIndex      *int
	CreatedAt       time.Time
}

// Decision is one admin verdict on a proposed route. TraceID links to the
// judged run; RequestTraceID is the id sent on the outbound decision call.
type Decision struct {
	ID             uuid.UUID
	TraceID        string
	RequestTraceID string
	UserID         string
	AdminID        string
	Action         string
	Route          any
	Metadata       any
	CreatedAt      time.Time
}

const (
	kindRun      = "run"
	kindDecision = "decision"
)
