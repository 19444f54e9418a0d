// Package validation decodes untrusted JSON bodies into typed requests and
// collects field-level issues. Decoding never partially applies: callers only
// see a value when every check passed.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	dErrors "pedalgate/pkg/domain-errors"
)

// Bounds enforced across the gateway.
const (
	MaxLocations         = 80
	MinRouteLocations    = 2
	MinPenaltyLocations  = 1
	MaxTraceIDLength     = 200
	MaxLabelLength       = 32
	MaxLocationIDLength  = 100
	MaxLocationNameLen   = 200
	MinMaxDurationMinute = 5
	MaxMaxDurationMinute = 720
	MinAuditLimit        = 1
	MaxAuditLimit        = 200
	DefaultAuditLimit    = 50

	// Serialized-size caps. Route bodies carry matrices and get the larger cap.
	MaxDecisionBytes = 100 * 1024
	MaxPenaltyBytes  = 100 * 1024
	MaxRouteBytes    = 200 * 1024

	// MaxTransportBytes bounds what is read off the wire before parsing.
	MaxTransportBytes = 1 << 20
)

// Validatable is implemented by request types that check their own bounds
// after decoding.
type Validatable interface {
	Validate() error
}

// Issues accumulates field-level problems.
type Issues struct {
	list []dErrors.Issue
}

// Add records a problem at path.
func (is *Issues) Add(path, format string, args ...any) {
	is.list = append(is.list, dErrors.Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Empty reports whether no problem was recorded.
func (is *Issues) Empty() bool {
	return len(is.list) == 0
}

// List returns a copy of the recorded issues.
func (is *Issues) List() []dErrors.Issue {
	return append([]dErrors.Issue(nil), is.list...)
}

// Err returns an invalid_request error carrying the issues, or nil.
func (is *Issues) Err() error {
	if is.Empty() {
		return nil
	}
	return dErrors.New(dErrors.CodeInvalidRequest, "request validation failed").WithIssues(is.list)
}

// Range checks lo <= v <= hi and rejects non-finite values.
func (is *Issues) Range(path string, v, lo, hi float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < lo || v > hi {
		is.Add(path, "must be between %v and %v", lo, hi)
	}
}

// MaxLen checks a string length cap.
func (is *Issues) MaxLen(path, v string, limit int) {
	if len(v) > limit {
		is.Add(path, "must be at most %d characters", limit)
	}
}

// Decode parses raw into dst. Malformed JSON yields invalid_json; a body whose
// re-serialized form exceeds maxBytes yields payload_too_large; a shape that
// does not fit dst yields invalid_request.
func Decode(raw []byte, maxBytes int, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return dErrors.New(dErrors.CodeInvalidJSON, "request body is required")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidJSON, "request body is not valid JSON")
	}
	if dec.More() {
		return dErrors.New(dErrors.CodeInvalidJSON, "request body must contain a single JSON value")
	}

	size, err := SerializedSize(generic)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidJSON, "request body is not valid JSON")
	}
	if size > maxBytes {
		return dErrors.New(dErrors.CodePayloadTooLarge,
			fmt.Sprintf("payload is %d bytes, limit is %d", size, maxBytes))
	}

	if _, ok := generic.(map[string]any); !ok {
		var is Issues
		is.Add("$", "must be a JSON object")
		return is.Err()
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		var is Issues
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			path := typeErr.Field
			if path == "" {
				path = "$"
			}
			is.Add(path, "must be of type %s", typeErr.Type.String())
		} else {
			is.Add("$", "%s", err.Error())
		}
		return is.Err()
	}
	return nil
}

// SerializedSize returns the length of v's compact JSON encoding, without
// HTML escaping.
func SerializedSize(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return len(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}
