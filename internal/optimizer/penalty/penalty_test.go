package penalty

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedalgate/internal/optimizer/models"
	"pedalgate/pkg/platform/validation"
)

func flag(v bool) *validation.Flag {
	f := validation.Flag(v)
	return &f
}

func TestScalar(t *testing.T) {
	cases := []struct {
		name  string
		prefs *models.Preferences
		want  float64
	}{
		{"no preferences", nil, 0},
		{"avoid traffic", &models.Preferences{AvoidTraffic: flag(true)}, 0.10},
		{"traffic and weather", &models.Preferences{AvoidTraffic: flag(true), WeatherConsideration: flag(true)}, 0.15},
		{"peak", &models.Preferences{TimeOfDay: "peak"}, 0.12},
		{"evening efficiency", &models.Preferences{TimeOfDay: "Evening", Priority: "efficiency"}, 0.14},
		{"midday", &models.Preferences{TimeOfDay: "midday"}, 0.04},
		{"unknown label", &models.Preferences{TimeOfDay: "dawn", Priority: "fun"}, 0},
		{"coverage alone clamps to zero", &models.Preferences{Priority: "coverage"}, 0},
		{"coverage reduces", &models.Preferences{AvoidTraffic: flag(true), Priority: "coverage"}, 0.07},
		{"everything", &models.Preferences{
			AvoidTraffic: flag(true), WeatherConsideration: flag(true), TimeOfDay: "peak", Priority: "duration",
		}, 0.33},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Scalar(tc.prefs), 1e-9)
		})
	}
}

func TestGenerate(t *testing.T) {
	t.Run("empty input is an error", func(t *testing.T) {
		_, err := Generate(nil, nil)
		assert.ErrorIs(t, err, ErrNoLocations)
	})

	t.Run("single location yields empty matrix", func(t *testing.T) {
		m, err := Generate([]models.Location{{Lat: 1, Lng: 1}}, &models.Preferences{AvoidTraffic: flag(true)})
		require.NoError(t, err)
		assert.NotNil(t, m)
		assert.Empty(t, m)
	})

	t.Run("zero distance clamps to the floor factor", func(t *testing.T) {
		p := models.Location{Lat: 40.7128, Lng: -74.0060}
		prefs := &models.Preferences{AvoidTraffic: flag(true), TimeOfDay: "peak"}
		m, err := Generate([]models.Location{p, p, p}, prefs)
		require.NoError(t, err)

		want := round3(1.0 + Scalar(prefs)*0.5)
		assert.InDelta(t, 1.11, want, 1e-9)
		for i := range m {
			for j := range m[i] {
				if i == j {
					assert.Equal(t, 1.0, m[i][j])
				} else {
					assert.Equal(t, want, m[i][j])
				}
			}
		}
	})

	t.Run("long distances clamp to the ceiling factor", func(t *testing.T) {
		locs := []models.Location{{Lat: 0, Lng: 0}, {Lat: 10, Lng: 10}}
		prefs := &models.Preferences{AvoidTraffic: flag(true)}
		m, err := Generate(locs, prefs)
		require.NoError(t, err)
		assert.Equal(t, 1.15, m[0][1])
	})

	t.Run("mid-range distance scales linearly", func(t *testing.T) {
		// ~3.336 km apart, factor ~1.112
		locs := []models.Location{{Lat: 0, Lng: 0}, {Lat: 0.03, Lng: 0}}
		prefs := &models.Preferences{AvoidTraffic: flag(true)}
		m, err := Generate(locs, prefs)
		require.NoError(t, err)
		assert.InDelta(t, 1.111, m[0][1], 0.001)
	})

	t.Run("no preferences gives all ones", func(t *testing.T) {
		locs := []models.Location{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}}
		m, err := Generate(locs, nil)
		require.NoError(t, err)
		assert.Equal(t, [][]float64{{1, 1}, {1, 1}}, m)
	})
}

func TestGenerateProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	prefs := &models.Preferences{
		AvoidTraffic: flag(true), WeatherConsideration: flag(true), TimeOfDay: "evening", Priority: "duration",
	}

	for trial := 0; trial < 50; trial++ {
		n := 2 + rng.Intn(79)
		locs := make([]models.Location, n)
		for i := range locs {
			// Cluster around a city so distances straddle the clamp bounds.
			locs[i] = models.Location{
				Lat: 52.5 + rng.Float64()*0.1 - 0.05,
				Lng: 13.4 + rng.Float64()*0.1 - 0.05,
			}
		}

		m, err := Generate(locs, prefs)
		require.NoError(t, err)
		require.Len(t, m, n)

		for i := 0; i < n; i++ {
			require.Len(t, m[i], n)
			assert.Equal(t, 1.0, m[i][i], "diagonal must be exactly 1.0")
			for j := 0; j < n; j++ {
				assert.GreaterOrEqual(t, m[i][j], 1.0)
				assert.False(t, math.IsNaN(m[i][j]))
				assert.InDelta(t, m[i][j], m[j][i], 1e-9, "matrix must be symmetric at [%d][%d]", i, j)
			}
		}
	}
}
