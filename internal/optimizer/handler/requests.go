package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"pedalgate/internal/optimizer/models"
	dErrors "pedalgate/pkg/domain-errors"
	"pedalgate/pkg/platform/validation"
)

// PenaltyRequest is the body of POST /optimize/penalties.
type PenaltyRequest struct {
	Locations   []models.Location   `json:"locations"`
	Preferences *models.Preferences `json:"preferences,omitempty"`
}

func (r *PenaltyRequest) Validate() error {
	var is validation.Issues
	validateLocations(&is, r.Locations, validation.MinPenaltyLocations)
	validatePreferences(&is, r.Preferences)
	return is.Err()
}

// RouteRequest is the body of POST /optimize/route.
type RouteRequest models.OptimizeRequest

// Validate checks schema bounds first, then the start index, then the
// penalty matrix shape. Each stage has its own error code.
func (r *RouteRequest) Validate() error {
	var is validation.Issues
	validateLocations(&is, r.Locations, validation.MinRouteLocations)
	validatePreferences(&is, r.Preferences)
	if len(r.Context) > 0 && !json.Valid(r.Context) {
		is.Add("context", "must be valid JSON")
	}
	if err := is.Err(); err != nil {
		return err
	}

	n := len(r.Locations)
	if r.StartIndex != nil && (*r.StartIndex < 0 || *r.StartIndex >= n) {
		return dErrors.New(dErrors.CodeInvalidStartIndex,
			fmt.Sprintf("start_index must be between 0 and %d", n-1))
	}

	if r.EdgePenalties != nil {
		if err := validateMatrix(r.EdgePenalties, n); err != nil {
			return err
		}
	}
	return nil
}

// Optimize returns the validated value as the shared model.
func (r *RouteRequest) Optimize() *models.OptimizeRequest {
	return (*models.OptimizeRequest)(r)
}

// DecisionRequest is the body of POST /optimize/decision.
type DecisionRequest models.DecisionRequest

func (r *DecisionRequest) Validate() error {
	var is validation.Issues
	switch r.Action {
	case models.ActionAccept, models.ActionReject:
	case "":
		is.Add("action", "is required")
	default:
		is.Add("action", "must be one of accept, reject")
	}
	is.MaxLen("trace_id", r.TraceID, validation.MaxTraceIDLength)
	if len(r.Metadata) > 0 && !isObjectOrNull(r.Metadata) {
		is.Add("metadata", "must be an object")
	}
	return is.Err()
}

// Decision returns the validated value as the shared model.
func (r *DecisionRequest) Decision() *models.DecisionRequest {
	return (*models.DecisionRequest)(r)
}

// parseAuditLimit reads the optional limit query value.
func parseAuditLimit(raw string) (int, error) {
	if raw == "" {
		return validation.DefaultAuditLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < validation.MinAuditLimit || limit > validation.MaxAuditLimit {
		return 0, dErrors.New(dErrors.CodeInvalidLimit,
			fmt.Sprintf("limit must be an integer between %d and %d", validation.MinAuditLimit, validation.MaxAuditLimit))
	}
	return limit, nil
}

func validateLocations(is *validation.Issues, locs []models.Location, minCount int) {
	switch {
	case locs == nil:
		is.Add("locations", "is required")
		return
	case len(locs) < minCount:
		is.Add("locations", "must contain at least %d locations", minCount)
		return
	case len(locs) > validation.MaxLocations:
		is.Add("locations", "must contain at most %d locations", validation.MaxLocations)
		return
	}
	for i, loc := range locs {
		path := "locations." + strconv.Itoa(i)
		is.Range(path+".lat", loc.Lat, -90, 90)
		is.Range(path+".lng", loc.Lng, -180, 180)
		is.MaxLen(path+".id", loc.ID, validation.MaxLocationIDLength)
		is.MaxLen(path+".name", loc.Name, validation.MaxLocationNameLen)
	}
}

func validatePreferences(is *validation.Issues, p *models.Preferences) {
	if p == nil {
		return
	}
	if p.MaxDurationMinutes != nil {
		is.Range("preferences.max_duration_minutes", *p.MaxDurationMinutes,
			validation.MinMaxDurationMinute, validation.MaxMaxDurationMinute)
	}
	is.MaxLen("preferences.time_of_day", p.TimeOfDay, validation.MaxLabelLength)
	is.MaxLen("preferences.priority", p.Priority, validation.MaxLabelLength)
}

func validateMatrix(m [][]float64, n int) error {
	if len(m) != n {
		return dErrors.New(dErrors.CodeInvalidEdgePenalties,
			fmt.Sprintf("edge_penalties must have %d rows, got %d", n, len(m)))
	}
	for i, row := range m {
		if len(row) != n {
			return dErrors.New(dErrors.CodeInvalidEdgePenalties,
				fmt.Sprintf("edge_penalties row %d must have %d entries, got %d", i, n, len(row)))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return dErrors.New(dErrors.CodeInvalidEdgePenalties,
					fmt.Sprintf("edge_penalties[%d][%d] must be a non-negative number", i, j))
			}
		}
	}
	return nil
}

func isObjectOrNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return bytes.Equal(trimmed, []byte("null")) || (len(trimmed) > 0 && trimmed[0] == '{')
}
