// Package health aggregates dependency checks into one report. Checks run in
// parallel, each under its own timeout, and the report is reduced to
// operational, degraded or down.
package health

import "time"

// Status is the reduced state of the gateway's dependencies.
type Status string

const (
	StatusOperational Status = "operational"
	StatusDegraded    Status = "degraded"
	StatusDown        Status = "down"
)

// CheckStatus is the outcome of one check.
type CheckStatus string

const (
	CheckOK    CheckStatus = "ok"
	CheckError CheckStatus = "error"
)

// Result is one named check outcome.
type Result struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

// Report is the aggregate health document.
type Report struct {
	Status    Status    `json:"status"`
	Checks    []Result  `json:"checks"`
	Timestamp time.Time `json:"timestamp"`
}

// Reduce derives the overall status: down when the primary check failed,
// degraded when any other check failed, operational otherwise.
func Reduce(primary string, results []Result) Status {
	status := StatusOperational
	for _, r := range results {
		if r.Status != CheckError {
			continue
		}
		if r.Name == primary {
			return StatusDown
		}
		status = StatusDegraded
	}
	return status
}
