package auth

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	Do(method, path string, body any, headers map[string]string) error
	LastStatus() int
	ResponseField(path string) (any, error)
	LastMailTo(address string) (string, bool)
	Promote(ctx context.Context, email string) error
	ActivationToken() string
	SetActivationToken(token string)
	AccessToken() string
	SetAccessToken(token string)
	RefreshToken() string
	SetRefreshToken(token string)
}

// RegisterSteps registers registration, activation and session step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &authSteps{tc: tc}

	// Registration and activation
	ctx.Step(`^I register as "([^"]*)" named "([^"]*)" with password "([^"]*)"$`, steps.register)
	ctx.Step(`^an activation code is mailed to "([^"]*)"$`, steps.activationCodeMailed)
	ctx.Step(`^I activate with the code mailed to "([^"]*)" and password "([^"]*)"$`, steps.activateWithMailedCode)
	ctx.Step(`^I activate with code "([^"]*)" and password "([^"]*)"$`, steps.activateWithCode)
	ctx.Step(`^an activated account "([^"]*)" with password "([^"]*)"$`, steps.activatedAccount)
	ctx.Step(`^an activated admin "([^"]*)" with password "([^"]*)"$`, steps.activatedAdmin)

	// Sessions
	ctx.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, steps.login)
	ctx.Step(`^I sign in with provider identity "([^"]*)" named "([^"]*)"$`, steps.socialAuth)
	ctx.Step(`^I save the issued tokens$`, steps.saveTokens)
	ctx.Step(`^I refresh my session$`, steps.refresh)
	ctx.Step(`^I log out$`, steps.logout)
}

type authSteps struct {
	tc TestContext
}

func (s *authSteps) register(ctx context.Context, email, name, password string) error {
	err := s.tc.POST("/registration", map[string]string{"name": name, "email": email, "password": password})
	if err != nil {
		return err
	}
	if s.tc.LastStatus() != 201 {
		return nil
	}
	tok, err := s.tc.ResponseField("activation_token")
	if err != nil {
		return err
	}
	s.tc.SetActivationToken(fmt.Sprint(tok))
	return nil
}

func (s *authSteps) activationCodeMailed(ctx context.Context, email string) error {
	if code, ok := s.tc.LastMailTo(email); !ok || code == "" {
		return fmt.Errorf("no activation code mailed to %s", email)
	}
	return nil
}

func (s *authSteps) activateWithMailedCode(ctx context.Context, email, password string) error {
	code, ok := s.tc.LastMailTo(email)
	if !ok {
		return fmt.Errorf("no activation code mailed to %s", email)
	}
	return s.activateWithCode(ctx, code, password)
}

func (s *authSteps) activateWithCode(ctx context.Context, code, password string) error {
	return s.tc.POST("/activate-user", map[string]string{
		"activation_token": s.tc.ActivationToken(),
		"activation_code":  code,
		"password":         password,
	})
}

func (s *authSteps) activatedAccount(ctx context.Context, email, password string) error {
	if err := s.register(ctx, email, "Test Learner", password); err != nil {
		return err
	}
	if err := s.activateWithMailedCode(ctx, email, password); err != nil {
		return err
	}
	if s.tc.LastStatus() != 201 {
		return fmt.Errorf("activation of %s failed with status %d", email, s.tc.LastStatus())
	}
	return nil
}

func (s *authSteps) activatedAdmin(ctx context.Context, email, password string) error {
	if err := s.activatedAccount(ctx, email, password); err != nil {
		return err
	}
	return s.tc.Promote(ctx, email)
}

func (s *authSteps) login(ctx context.Context, email, password string) error {
	return s.tc.POST("/login", map[string]string{"email": email, "password": password})
}

func (s *authSteps) socialAuth(ctx context.Context, email, name string) error {
	return s.tc.POST("/social-auth", map[string]string{"email": email, "name": name})
}

func (s *authSteps) saveTokens(ctx context.Context) error {
	access, err := s.tc.ResponseField("access_token")
	if err != nil {
		return err
	}
	refresh, err := s.tc.ResponseField("refresh_token")
	if err != nil {
		return err
	}
	s.tc.SetAccessToken(fmt.Sprint(access))
	s.tc.SetRefreshToken(fmt.Sprint(refresh))
	return nil
}

func (s *authSteps) refresh(ctx context.Context) error {
	return s.tc.Do("GET", "/refreshtoken", nil, map[string]string{"X-Refresh-Token": s.tc.RefreshToken()})
}

func (s *authSteps) logout(ctx context.Context) error {
	return s.tc.Do("GET", "/logout", nil, map[string]string{"Authorization": "Bearer " + s.tc.AccessToken()})
}
