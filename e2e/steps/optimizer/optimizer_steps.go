package optimizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	POSTRaw(path, body string) error
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers optimizer gateway step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &optimizerSteps{tc: tc}

	ctx.Step(`^I request penalties for (\d+) locations?$`, steps.requestPenalties)
	ctx.Step(`^I request penalties for (\d+) locations avoiding traffic at "([^"]*)"$`, steps.requestPenaltiesWithPrefs)
	ctx.Step(`^I request a route for (\d+) locations$`, steps.requestRoute)
	ctx.Step(`^I request a route for (\d+) locations starting at (\d+)$`, steps.requestRouteFrom)
	ctx.Step(`^I request a route with a context of (\d+) kilobytes$`, steps.requestOversizedRoute)
	ctx.Step(`^I POST the raw body "([^"]*)" to "([^"]*)"$`, steps.postRaw)
	ctx.Step(`^I (accept|reject) the route of trace "([^"]*)"$`, steps.decide)
	ctx.Step(`^the penalty matrix should be (\d+) by (\d+) with a unit diagonal$`, steps.matrixShape)
}

type optimizerSteps struct {
	tc TestContext
}

func locations(n int) []map[string]any {
	locs := make([]map[string]any, n)
	for i := range locs {
		locs[i] = map[string]any{
			"id":  fmt.Sprintf("stop-%d", i),
			"lat": 40.70 + float64(i)*0.01,
			"lng": -74.00 + float64(i)*0.005,
		}
	}
	return locs
}

func (s *optimizerSteps) requestPenalties(ctx context.Context, n int) error {
	return s.tc.POST("/optimize/penalties", map[string]any{"locations": locations(n)})
}

func (s *optimizerSteps) requestPenaltiesWithPrefs(ctx context.Context, n int, timeOfDay string) error {
	return s.tc.POST("/optimize/penalties", map[string]any{
		"locations": locations(n),
		"preferences": map[string]any{
			"avoid_traffic": "true",
			"time_of_day":   timeOfDay,
		},
	})
}

func (s *optimizerSteps) requestRoute(ctx context.Context, n int) error {
	return s.tc.POST("/optimize/route", map[string]any{"locations": locations(n)})
}

func (s *optimizerSteps) requestRouteFrom(ctx context.Context, n, start int) error {
	return s.tc.POST("/optimize/route", map[string]any{
		"locations":   locations(n),
		"start_index": start,
	})
}

func (s *optimizerSteps) requestOversizedRoute(ctx context.Context, kb int) error {
	return s.tc.POST("/optimize/route", map[string]any{
		"locations": locations(2),
		"context":   map[string]any{"blob": strings.Repeat("x", kb*1024)},
	})
}

func (s *optimizerSteps) postRaw(ctx context.Context, body, path string) error {
	return s.tc.POSTRaw(path, body)
}

func (s *optimizerSteps) decide(ctx context.Context, action, traceID string) error {
	return s.tc.POST("/optimize/decision", map[string]any{
		"action":   action,
		"trace_id": traceID,
		"route":    locations(2),
	})
}

func (s *optimizerSteps) matrixShape(ctx context.Context, rows, cols int) error {
	v, err := s.tc.GetResponseField("edge_penalties")
	if err != nil {
		return err
	}
	matrix, ok := v.([]any)
	if !ok || len(matrix) != rows {
		return fmt.Errorf("expected %d rows, got %v", rows, v)
	}
	for i, r := range matrix {
		row, ok := r.([]any)
		if !ok || len(row) != cols {
			return fmt.Errorf("row %d: expected %d entries, got %v", i, cols, r)
		}
		if row[i] != 1.0 {
			return fmt.Errorf("diagonal [%d][%d] is %v, want 1", i, i, row[i])
		}
	}
	return nil
}
