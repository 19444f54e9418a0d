package common

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	UseAdminToken() error
	UseToken(token string)
	SetTraceID(id string)
	GET(path string) error
	OPTIONS(path string) error
	GetLastStatusCode() int
	GetLastHeader(key string) string
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers background, request and assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^I am an authenticated admin$`, steps.authenticatedAdmin)
	ctx.Step(`^I use the bearer token "([^"]*)"$`, steps.useToken)
	ctx.Step(`^my trace id is "([^"]*)"$`, steps.traceID)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^I send a preflight request to "([^"]*)"$`, steps.preflight)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, steps.headerShouldBe)
	ctx.Step(`^the response header "([^"]*)" should be present$`, steps.headerPresent)
	ctx.Step(`^the error should be "([^"]*)"$`, steps.errorShouldBe)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) authenticatedAdmin(ctx context.Context) error {
	return s.tc.UseAdminToken()
}

func (s *commonSteps) useToken(ctx context.Context, token string) error {
	s.tc.UseToken(token)
	return nil
}

func (s *commonSteps) traceID(ctx context.Context, id string) error {
	s.tc.SetTraceID(id)
	return nil
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.GET(path)
}

func (s *commonSteps) preflight(ctx context.Context, path string) error {
	return s.tc.OPTIONS(path)
}

func (s *commonSteps) statusShouldBe(ctx context.Context, expected int) error {
	if got := s.tc.GetLastStatusCode(); got != expected {
		return fmt.Errorf("expected status %d, got %d", expected, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBe(ctx context.Context, field, expected string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if fmt.Sprint(v) != expected {
		return fmt.Errorf("expected %s to be %q, got %v", field, expected, v)
	}
	return nil
}

func (s *commonSteps) headerShouldBe(ctx context.Context, key, expected string) error {
	if got := s.tc.GetLastHeader(key); got != expected {
		return fmt.Errorf("expected header %s to be %q, got %q", key, expected, got)
	}
	return nil
}

func (s *commonSteps) headerPresent(ctx context.Context, key string) error {
	if s.tc.GetLastHeader(key) == "" {
		return fmt.Errorf("expected header %s to be present", key)
	}
	return nil
}

func (s *commonSteps) errorShouldBe(ctx context.Context, code string) error {
	return s.fieldShouldBe(ctx, "error", code)
}
