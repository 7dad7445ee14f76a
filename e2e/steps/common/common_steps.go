package common

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Start(perMinute, burst int) error
	Do(method, path string, body any, headers map[string]string) error
	LastStatus() int
	LastBody() []byte
	ResponseField(path string) (any, error)
	AccessToken() string
}

// RegisterSteps registers background, request and assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^a running learnhub instance$`, steps.runningInstance)
	ctx.Step(`^a running learnhub instance allowing (\d+) requests per minute with burst (\d+)$`, steps.runningLimitedInstance)

	ctx.Step(`^I (GET|PUT|POST) "([^"]*)" with my access token$`, steps.requestWithToken)
	ctx.Step(`^I (GET|PUT|POST) "([^"]*)" with my access token and body:$`, steps.requestWithTokenAndBody)
	ctx.Step(`^I (GET|PUT|POST) "([^"]*)" without a token$`, steps.requestWithoutToken)
	ctx.Step(`^I (GET|PUT|POST) "([^"]*)" with token "([^"]*)"$`, steps.requestWithRawToken)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the error code should be "([^"]*)"$`, steps.errorCodeShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the response should not contain "([^"]*)"$`, steps.bodyShouldNotContain)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) runningInstance(ctx context.Context) error {
	return s.tc.Start(0, 0)
}

func (s *commonSteps) runningLimitedInstance(ctx context.Context, perMinute, burst int) error {
	return s.tc.Start(perMinute, burst)
}

func (s *commonSteps) bearer() map[string]string {
	return map[string]string{"Authorization": "Bearer " + s.tc.AccessToken()}
}

func (s *commonSteps) requestWithToken(ctx context.Context, method, path string) error {
	return s.tc.Do(method, path, nil, s.bearer())
}

func (s *commonSteps) requestWithTokenAndBody(ctx context.Context, method, path string, doc *godog.DocString) error {
	return s.tc.Do(method, path, json.RawMessage(doc.Content), s.bearer())
}

func (s *commonSteps) requestWithoutToken(ctx context.Context, method, path string) error {
	return s.tc.Do(method, path, nil, nil)
}

func (s *commonSteps) requestWithRawToken(ctx context.Context, method, path, token string) error {
	return s.tc.Do(method, path, nil, map[string]string{"Authorization": "Bearer " + token})
}

func (s *commonSteps) statusShouldBe(ctx context.Context, want int) error {
	if got := s.tc.LastStatus(); got != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, got, s.tc.LastBody())
	}
	return nil
}

func (s *commonSteps) errorCodeShouldBe(ctx context.Context, want string) error {
	return s.fieldShouldBe(ctx, "error", want)
}

func (s *commonSteps) fieldShouldBe(ctx context.Context, field, want string) error {
	got, err := s.tc.ResponseField(field)
	if err != nil {
		return err
	}
	if fmt.Sprint(got) != want {
		return fmt.Errorf("expected %s to be %q, got %q", field, want, fmt.Sprint(got))
	}
	return nil
}

func (s *commonSteps) bodyShouldNotContain(ctx context.Context, needle string) error {
	if strings.Contains(string(s.tc.LastBody()), needle) {
		return fmt.Errorf("response unexpectedly contains %q: %s", needle, s.tc.LastBody())
	}
	return nil
}
