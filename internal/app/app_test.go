package app_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"learnhub/internal/account"
	"learnhub/internal/app"
	"learnhub/internal/auth/session"
	"learnhub/internal/mail"
	"learnhub/internal/platform/config"
	"learnhub/internal/platform/metrics"
	"learnhub/pkg/domain"
	dErrors "learnhub/pkg/domain-errors"
	"learnhub/pkg/testutil"
)

// inbox keeps delivered messages so tests can read activation codes.
type inbox struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (i *inbox) Send(_ context.Context, msg mail.Message) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.sent = append(i.sent, msg)
	return nil
}

func (i *inbox) lastCode() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.sent) == 0 {
		return ""
	}
	return i.sent[len(i.sent)-1].TemplateData.(mail.ActivationData).ActivationCode
}

type FlowSuite struct {
	suite.Suite
	accounts *account.InMemoryStore
	mail     *inbox
	handler  http.Handler
}

func TestFlowSuite(t *testing.T) {
	suite.Run(t, new(FlowSuite))
}

func (s *FlowSuite) SetupTest() {
	cfg := config.Server{
		APIPrefix:    "/api/v1",
		CookieSecure: true,
		Tokens: config.TokenConfig{
			ActivationSecret:     "activation-secret",
			AccessSecret:         "access-secret",
			RefreshSecret:        "refresh-secret",
			Issuer:               "learnhub-test",
			AccessTTL:            5 * time.Minute,
			RefreshTTL:           72 * time.Hour,
			ActivationTTL:        5 * time.Minute,
			ActivationCodeDigits: 6,
		},
		RateLimit: config.RateLimitConfig{PerMinute: 1000, Burst: 1000},
	}
	s.accounts = account.NewInMemoryStore()
	s.mail = &inbox{}

	var err error
	s.handler, err = app.NewHandler(cfg, app.Deps{
		Cache:    session.NewMemoryCache(),
		Accounts: s.accounts,
		Mailer:   s.mail,
		Metrics:  metrics.New(prometheus.NewRegistry()),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	s.Require().NoError(err)
}

func (s *FlowSuite) call(method, path string, body any, opts ...testutil.RequestOption) *httptest.ResponseRecorder {
	return testutil.Do(s.handler, testutil.NewJSONRequest(s.T(), method, "/api/v1"+path, body, opts...))
}

type tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type userEnvelope struct {
	User account.AccountView `json:"user"`
}

func (s *FlowSuite) register(email, name, password string) {
	rr := s.call(http.MethodPost, "/registration", map[string]string{"name": name, "email": email, "password": password})
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	tok := testutil.DecodeJSON[struct {
		ActivationToken string `json:"activation_token"`
	}](s.T(), rr).ActivationToken

	rr = s.call(http.MethodPost, "/activate-user", map[string]string{
		"activation_token": tok, "activation_code": s.mail.lastCode(), "password": password,
	})
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
}

func (s *FlowSuite) login(email, password string) tokens {
	rr := s.call(http.MethodPost, "/login", map[string]string{"email": email, "password": password})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	return testutil.DecodeJSON[tokens](s.T(), rr)
}

func (s *FlowSuite) TestRegistrationToLogout() {
	rr := s.call(http.MethodPost, "/registration", map[string]string{"name": "Alex", "email": "A@X.com", "password": "s3cret!"})
	s.Require().Equal(http.StatusCreated, rr.Code)
	activationToken := testutil.DecodeJSON[map[string]any](s.T(), rr)["activation_token"].(string)
	code := s.mail.lastCode()
	s.Len(code, 6)
	s.NotContains(rr.Body.String(), code)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	rr = s.call(http.MethodPost, "/activate-user", map[string]string{
		"activation_token": activationToken, "activation_code": wrong, "password": "s3cret!",
	})
	testutil.AssertError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeActivationCodeMismatch))

	rr = s.call(http.MethodPost, "/activate-user", map[string]string{
		"activation_token": activationToken, "activation_code": code, "password": "s3cret!",
	})
	s.Require().Equal(http.StatusCreated, rr.Code)

	pair := s.login("a@x.com", "s3cret!")
	bearer := testutil.WithBearer(pair.AccessToken)

	rr = s.call(http.MethodGet, "/me", nil, bearer)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Equal("a@x.com", testutil.DecodeJSON[userEnvelope](s.T(), rr).User.Email)

	rr = s.call(http.MethodPut, "/update-user-info", map[string]string{"name": "Alexandra"}, bearer)
	s.Require().Equal(http.StatusOK, rr.Code)
	rr = s.call(http.MethodGet, "/me", nil, bearer)
	s.Equal("Alexandra", testutil.DecodeJSON[userEnvelope](s.T(), rr).User.Name, "session reflects the mutation")

	rr = s.call(http.MethodGet, "/get-users", nil, bearer)
	testutil.AssertError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))

	rr = s.call(http.MethodGet, "/refreshtoken", nil, testutil.WithCookie("refresh_token", pair.RefreshToken))
	s.Require().Equal(http.StatusOK, rr.Code)
	rotated := testutil.DecodeJSON[tokens](s.T(), rr)
	s.NotEmpty(rotated.AccessToken)

	rr = s.call(http.MethodGet, "/logout", nil, testutil.WithBearer(rotated.AccessToken))
	s.Require().Equal(http.StatusOK, rr.Code)

	for _, access := range []string{pair.AccessToken, rotated.AccessToken} {
		rr = s.call(http.MethodGet, "/me", nil, testutil.WithBearer(access))
		testutil.AssertError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthenticated))
	}
	rr = s.call(http.MethodGet, "/refreshtoken", nil, testutil.WithHeader("X-Refresh-Token", rotated.RefreshToken))
	testutil.AssertError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeSessionNotFound))
}

func (s *FlowSuite) TestAdminListsAccounts() {
	s.register("root@x.com", "Root", "r00t-pass")
	s.register("user@x.com", "User", "us3r-pass")

	root, err := s.accounts.FindByEmail(context.Background(), "root@x.com")
	s.Require().NoError(err)
	root.Role = domain.RoleAdmin
	s.Require().NoError(s.accounts.Update(context.Background(), root))

	pair := s.login("root@x.com", "r00t-pass")
	rr := s.call(http.MethodGet, "/get-users", nil, testutil.WithCookie("access_token", pair.AccessToken))
	s.Require().Equal(http.StatusOK, rr.Code)
	users := testutil.DecodeJSON[struct {
		Users []account.AccountView `json:"users"`
	}](s.T(), rr).Users
	s.Len(users, 2)
}

func (s *FlowSuite) TestDuplicateRegistration() {
	s.register("dup@x.com", "Dup", "s3cret!")

	rr := s.call(http.MethodPost, "/registration", map[string]string{"name": "Dup", "email": "dup@x.com", "password": "s3cret!"})
	testutil.AssertError(s.T(), rr, http.StatusConflict, string(dErrors.CodeDuplicateAccount))
}

func (s *FlowSuite) TestSocialAuthThenPasswordLoginFails() {
	rr := s.call(http.MethodPost, "/social-auth", map[string]any{"email": "g@x.com", "name": "Gee"})
	s.Require().Equal(http.StatusOK, rr.Code)
	s.NotNil(testutil.Cookie(rr, "access_token"))

	rr = s.call(http.MethodPost, "/login", map[string]string{"email": "g@x.com", "password": "anything"})
	testutil.AssertError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeInvalidCredentials))
}
