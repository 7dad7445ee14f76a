package e2e

import (
	"github.com/cucumber/godog"

	"learnhub/e2e/steps/auth"
	"learnhub/e2e/steps/common"
	"learnhub/e2e/steps/ratelimit"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (background, generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register registration, activation and session steps
	auth.RegisterSteps(ctx, tc)

	// Register rate-limiting steps
	ratelimit.RegisterSteps(ctx, tc)
}
