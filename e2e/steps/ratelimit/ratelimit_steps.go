package ratelimit

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	LastStatus() int
	LastBody() []byte
}

// RegisterSteps registers rate-limiting step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ratelimitSteps{tc: tc}

	ctx.Step(`^I attempt login for "([^"]*)" with password "([^"]*)" (\d+) times$`, steps.attemptLoginNTimes)
	ctx.Step(`^every attempt should have returned (\d+)$`, steps.everyAttemptReturned)
	ctx.Step(`^only the last attempt should have been rejected$`, steps.onlyLastRejected)
}

type ratelimitSteps struct {
	tc       TestContext
	statuses []int
}

func (s *ratelimitSteps) attemptLoginNTimes(ctx context.Context, email, password string, n int) error {
	s.statuses = s.statuses[:0]
	for range n {
		if err := s.tc.POST("/login", map[string]string{"email": email, "password": password}); err != nil {
			return err
		}
		s.statuses = append(s.statuses, s.tc.LastStatus())
	}
	return nil
}

func (s *ratelimitSteps) everyAttemptReturned(ctx context.Context, status int) error {
	for i, got := range s.statuses {
		if got != status {
			return fmt.Errorf("attempt %d returned %d, expected %d", i+1, got, status)
		}
	}
	return nil
}

// onlyLastRejected expects every attempt but the final one to pass the limiter.
func (s *ratelimitSteps) onlyLastRejected(ctx context.Context) error {
	if len(s.statuses) == 0 {
		return fmt.Errorf("no attempts recorded")
	}
	last := len(s.statuses) - 1
	for i, got := range s.statuses[:last] {
		if got == 429 {
			return fmt.Errorf("attempt %d was rate limited early", i+1)
		}
	}
	if s.statuses[last] != 429 {
		return fmt.Errorf("final attempt returned %d, expected 429: %s", s.statuses[last], s.tc.LastBody())
	}
	return nil
}
