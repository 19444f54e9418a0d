// Package sanitize reduces optimizer requests and responses to the summaries
// stored in the audit trail. Every function is pure and total: unexpected
// shapes degrade to null fields instead of errors.
package sanitize

import (
	"bytes"
	"encoding/json"
	"math"

	"pedalgate/internal/optimizer/models"
	"pedalgate/pkg/platform/validation"
)

const maxStopIDs = 80

// CampaignRef is the only part of a request context that is retained.
type CampaignRef struct {
	ID   any `json:"id"`
	Name any `json:"name"`
	Type any `json:"type"`
}

// PreferenceSnapshot records the tuning knobs a run was asked for.
type PreferenceSnapshot struct {
	MaxDurationMinutes   *float64 `json:"max_duration_minutes"`
	AvoidTraffic         *bool    `json:"avoid_traffic"`
	RestStops            *bool    `json:"rest_stops"`
	WeatherConsideration *bool    `json:"weather_consideration"`
	TimeOfDay            *string  `json:"time_of_day"`
	Priority             *string  `json:"priority"`
}

// RequestSummary is the storage-safe view of an OptimizeRequest.
type RequestSummary struct {
	LocationCount    int                 `json:"location_count"`
	StartIndex       *int                `json:"start_index"`
	HasEdgePenalties bool                `json:"has_edge_penalties"`
	Preferences      *PreferenceSnapshot `json:"preferences"`
	Campaign         *CampaignRef        `json:"campaign"`
}

// ResponseSummary is the storage-safe view of an optimizer response.
type ResponseSummary struct {
	Metrics      json.RawMessage `json:"metrics"`
	Score        *float64        `json:"score"`
	Warnings     []string        `json:"warnings"`
	Version      *string         `json:"version"`
	ModelVersion *string         `json:"model_version"`
}

// RouteSummary is the storage-safe view of a route judged by a decision.
type RouteSummary struct {
	StopCount *int            `json:"stop_count"`
	StopIDs   []string        `json:"stop_ids"`
	Score     *float64        `json:"score"`
	Metrics   json.RawMessage `json:"metrics"`
}

// Request summarizes req. A nil request yields a zero summary.
func Request(req *models.OptimizeRequest) RequestSummary {
	if req == nil {
		return RequestSummary{}
	}
	return RequestSummary{
		LocationCount:    len(req.Locations),
		StartIndex:       req.StartIndex,
		HasEdgePenalties: len(req.EdgePenalties) > 0,
		Preferences:      preferences(req.Preferences),
		Campaign:         campaign(req.Context),
	}
}

// Response summarizes a raw upstream JSON body.
func Response(body json.RawMessage) ResponseSummary {
	obj := object(body)
	if obj == nil {
		return ResponseSummary{}
	}
	return ResponseSummary{
		Metrics:      structured(obj["metrics"]),
		Score:        number(obj["score"]),
		Warnings:     stringList(obj["warnings"]),
		Version:      str(obj["version"]),
		ModelVersion: str(obj["model_version"]),
	}
}

// Route summarizes a route payload. Both a bare stop array and an object
// with a "route" or "stops" array are understood.
func Route(raw json.RawMessage) RouteSummary {
	var summary RouteSummary
	stops := array(raw)
	if obj := object(raw); obj != nil {
		summary.Score = number(obj["score"])
		summary.Metrics = structured(obj["metrics"])
		if stops == nil {
			stops = array(obj["route"])
		}
		if stops == nil {
			stops = array(obj["stops"])
		}
	}
	if stops == nil {
		return summary
	}
	count := len(stops)
	summary.StopCount = &count
	summary.StopIDs = stopIDs(stops)
	return summary
}

func preferences(p *models.Preferences) *PreferenceSnapshot {
	if p == nil {
		return nil
	}
	snap := &PreferenceSnapshot{
		MaxDurationMinutes:   p.MaxDurationMinutes,
		AvoidTraffic:         flag(p.AvoidTraffic),
		RestStops:            flag(p.RestStops),
		WeatherConsideration: flag(p.WeatherConsideration),
	}
	if p.TimeOfDay != "" {
		v := p.TimeOfDay
		snap.TimeOfDay = &v
	}
	if p.Priority != "" {
		v := p.Priority
		snap.Priority = &v
	}
	return snap
}

func flag(f *validation.Flag) *bool {
	if f == nil {
		return nil
	}
	v := f.Bool()
	return &v
}

func campaign(ctx json.RawMessage) *CampaignRef {
	obj := object(ctx)
	if obj == nil {
		return nil
	}
	c := object(obj["campaign"])
	if c == nil {
		return nil
	}
	return &CampaignRef{
		ID:   scalar(c["id"]),
		Name: scalar(c["name"]),
		Type: scalar(c["type"]),
	}
}

func stopIDs(stops []json.RawMessage) []string {
	ids := make([]string, 0, min(len(stops), maxStopIDs))
	for _, stop := range stops {
		if len(ids) == maxStopIDs {
			break
		}
		obj := object(stop)
		if obj == nil {
			continue
		}
		if id := str(obj["id"]); id != nil {
			ids = append(ids, *id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}

func object(raw json.RawMessage) map[string]json.RawMessage {
	if !isKind(raw, '{') {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj
}

func array(raw json.RawMessage) []json.RawMessage {
	if !isKind(raw, '[') {
		return nil
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil
	}
	return arr
}

// structured keeps objects and arrays verbatim and drops everything else.
func structured(raw json.RawMessage) json.RawMessage {
	if (isKind(raw, '{') || isKind(raw, '[')) && json.Valid(raw) {
		return raw
	}
	return nil
}

func number(raw json.RawMessage) *float64 {
	var v float64
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func str(raw json.RawMessage) *string {
	var v string
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return nil
	}
	return &v
}

func stringList(raw json.RawMessage) []string {
	arr := array(raw)
	if arr == nil {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s := str(item); s != nil {
			out = append(out, *s)
		}
	}
	return out
}

// scalar returns a string, number or bool value, else nil.
func scalar(raw json.RawMessage) any {
	if len(raw) == 0 || isKind(raw, '{') || isKind(raw, '[') {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func isKind(raw json.RawMessage, open byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == open
}
