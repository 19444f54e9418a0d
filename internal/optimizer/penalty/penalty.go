// Package penalty builds the edge-penalty matrix the optimizer uses to bias
// route selection away from costly hops.
package penalty

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"pedalgate/internal/geo"
	"pedalgate/internal/optimizer/models"
)

const (
	avoidTrafficPenalty = 0.10
	weatherPenalty      = 0.05

	distanceScaleKm   = 3.0
	minDistanceFactor = 0.5
	maxDistanceFactor = 1.5
)

var timeMultipliers = map[string]float64{
	"peak":    0.12,
	"evening": 0.08,
	"midday":  0.04,
}

var priorityBiases = map[string]float64{
	"duration":   0.06,
	"efficiency": 0.06,
	"coverage":   -0.03,
}

// ErrNoLocations is returned for an empty location list.
var ErrNoLocations = errors.New("penalty: at least one location is required")

// Scalar reduces preferences to the single non-negative penalty weight.
func Scalar(prefs *models.Preferences) float64 {
	if prefs == nil {
		return 0
	}
	base := 0.0
	if prefs.AvoidTraffic.Bool() {
		base += avoidTrafficPenalty
	}
	if prefs.WeatherConsideration.Bool() {
		base += weatherPenalty
	}
	timeMultiplier := timeMultipliers[normalize(prefs.TimeOfDay)]
	priorityBias := priorityBiases[normalize(prefs.Priority)]

	return math.Max(0, base+timeMultiplier+priorityBias)
}

// Generate returns the N×N factor matrix for locs. A single location yields an
// empty matrix.
func Generate(locs []models.Location, prefs *models.Preferences) ([][]float64, error) {
	n := len(locs)
	if n == 0 {
		return nil, ErrNoLocations
	}
	if n == 1 {
		return [][]float64{}, nil
	}

	penalty := Scalar(prefs)
	points := make([]geo.Point, n)
	for i, l := range locs {
		points[i] = l.Point()
	}

	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		for j := range matrix[i] {
			if i == j {
				matrix[i][j] = 1.0
				continue
			}
			factor := 1.0 + penalty*distanceFactor(geo.HaversineKm(points[i], points[j]))
			if math.IsNaN(factor) || math.IsInf(factor, 0) {
				return nil, fmt.Errorf("penalty: non-finite factor at [%d][%d]", i, j)
			}
			matrix[i][j] = round3(factor)
		}
	}
	return matrix, nil
}

func distanceFactor(km float64) float64 {
	return math.Min(maxDistanceFactor, math.Max(minDistanceFactor, km/distanceScaleKm))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
