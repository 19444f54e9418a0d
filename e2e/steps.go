package e2e

import (
	"github.com/cucumber/godog"

	"pedalgate/e2e/steps/common"
	"pedalgate/e2e/steps/optimizer"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (background, generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register optimizer gateway steps
	optimizer.RegisterSteps(ctx, tc)
}
