// Package models holds the request-scoped value objects exchanged between the
// gateway's handlers, the penalty generator, the sanitizer and the upstream
// optimizer.
package models

import (
	"encoding/json"

	"pedalgate/internal/geo"
	"pedalgate/pkg/platform/validation"
)

// Location is one stop. Coordinates are in degrees.
type Location struct {
	ID   string  `json:"id,omitempty"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Name string  `json:"name,omitempty"`
}

// Point converts the location for distance computations.
func (l Location) Point() geo.Point {
	return geo.Point{Lat: l.Lat, Lng: l.Lng}
}

// Preferences are optional tuning knobs. A nil field means "no preference".
type Preferences struct {
	MaxDurationMinutes   *float64         `json:"max_duration_minutes,omitempty"`
	AvoidTraffic         *validation.Flag `json:"avoid_traffic,omitempty"`
	RestStops            *validation.Flag `json:"rest_stops,omitempty"`
	WeatherConsideration *validation.Flag `json:"weather_consideration,omitempty"`
	TimeOfDay            string           `json:"time_of_day,omitempty"`
	Priority             string           `json:"priority,omitempty"`
}

// OptimizeRequest is the validated body forwarded to the optimizer.
type OptimizeRequest struct {
	StartIndex    *int            `json:"start_index,omitempty"`
	Locations     []Location      `json:"locations"`
	EdgePenalties [][]float64     `json:"edge_penalties,omitempty"`
	Preferences   *Preferences    `json:"preferences,omitempty"`
	Context       json.RawMessage `json:"context,omitempty"`
}

// Action is an admin verdict on a proposed route.
type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
)

// DecisionRequest is the validated body forwarded to the optimizer's decision
// endpoint.
type DecisionRequest struct {
	Action   Action          `json:"action"`
	Route    json.RawMessage `json:"route,omitempty"`
	TraceID  string          `json:"trace_id,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}
