package httptransport

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Activation,Sessions,Accounts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"learnhub/internal/account"
	"learnhub/internal/auth/gate"
	gatemocks "learnhub/internal/auth/gate/mocks"
	"learnhub/internal/auth/session"
	"learnhub/internal/platform/ratelimit"
	"learnhub/internal/token"
	"learnhub/internal/transport/http/mocks"
	"learnhub/pkg/domain"
	dErrors "learnhub/pkg/domain-errors"
	"learnhub/pkg/testutil"
)

const (
	userToken  = "user-access"
	adminToken = "admin-access"
)

type RouterSuite struct {
	suite.Suite
	activation *mocks.MockActivation
	sessions   *mocks.MockSessions
	accounts   *mocks.MockAccounts
	gateReads  *gatemocks.MockSessions
	user       account.AccountView
	admin      account.AccountView
	pair       session.TokenPair
	router     http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.activation = mocks.NewMockActivation(ctrl)
	s.sessions = mocks.NewMockSessions(ctrl)
	s.accounts = mocks.NewMockAccounts(ctrl)
	s.gateReads = gatemocks.NewMockSessions(ctrl)

	s.user = account.AccountView{ID: domain.NewAccountID(), Name: "Alex", Email: "a@x.com", Role: domain.RoleUser, IsVerified: true}
	s.admin = account.AccountView{ID: domain.NewAccountID(), Name: "Root", Email: "root@x.com", Role: domain.RoleAdmin, IsVerified: true}
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	s.pair = session.TokenPair{
		AccessToken:      "new-access",
		RefreshToken:     "new-refresh",
		AccessExpiresAt:  now.Add(5 * time.Minute),
		RefreshExpiresAt: now.Add(72 * time.Hour),
	}

	s.gateReads.EXPECT().VerifyAccess(userToken).Return(s.user.ID, nil).AnyTimes()
	s.gateReads.EXPECT().VerifyAccess(adminToken).Return(s.admin.ID, nil).AnyTimes()
	s.gateReads.EXPECT().Session(gomock.Any(), s.user.ID).Return(s.user, nil).AnyTimes()
	s.gateReads.EXPECT().Session(gomock.Any(), s.admin.ID).Return(s.admin, nil).AnyTimes()

	s.router = s.newRouter(nil, nil)
}

func (s *RouterSuite) newRouter(limiter *ratelimit.Limiter, checks map[string]HealthCheck) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(s.activation, s.sessions, s.accounts, CookieConfig{
		Secure:     true,
		AccessTTL:  5 * time.Minute,
		RefreshTTL: 72 * time.Hour,
	}, logger)
	return NewRouter(h, RouterConfig{
		APIPrefix:    "/api/v1",
		Gate:         gate.New(s.gateReads, gate.WithLogger(logger)),
		Limiter:      limiter,
		HealthChecks: checks,
		Logger:       logger,
	})
}

func (s *RouterSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.Do(s.router, req)
}

func (s *RouterSuite) TestRegistration() {
	s.Run("returns the token but never the code", func() {
		s.activation.EXPECT().BeginActivation(gomock.Any(), "a@x.com", "Alex", "s3cret!").Return("act-token", "4821", nil)

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/registration",
			map[string]string{"name": "Alex", "email": "a@x.com", "password": "s3cret!"}))
		s.Equal(http.StatusCreated, rr.Code)
		body := testutil.DecodeJSON[registrationResponse](s.T(), rr)
		s.True(body.Success)
		s.Equal("act-token", body.ActivationToken)
		s.Contains(body.Message, "a@x.com")
		s.NotContains(rr.Body.String(), "4821")
	})

	s.Run("duplicate", func() {
		s.activation.EXPECT().BeginActivation(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", "", dErrors.New(dErrors.CodeDuplicateAccount, "an account with this email already exists"))

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/registration",
			map[string]string{"name": "Alex", "email": "a@x.com", "password": "s3cret!"}))
		testutil.AssertError(s.T(), rr, http.StatusConflict, string(dErrors.CodeDuplicateAccount))
	})

	s.Run("malformed body", func() {
		rr := s.do(testutil.NewRawRequest(s.T(), http.MethodPost, "/api/v1/registration", `{"name":`))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("unknown field", func() {
		rr := s.do(testutil.NewRawRequest(s.T(), http.MethodPost, "/api/v1/registration", `{"email":"a@x.com","role":"admin"}`))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})
}

func (s *RouterSuite) TestActivateUser() {
	s.Run("creates the account", func() {
		created, err := account.NewAccount("a@x.com", "Alex", "s3cret!", time.Now())
		s.Require().NoError(err)
		s.activation.EXPECT().CompleteActivation(gomock.Any(), "act-token", "4821", "s3cret!").Return(created, nil)

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/activate-user", map[string]string{
			"activation_token": "act-token", "activation_code": "4821", "password": "s3cret!",
		}))
		s.Equal(http.StatusCreated, rr.Code)
		body := testutil.DecodeJSON[accountResponse](s.T(), rr)
		s.Equal(created.ID, body.User.ID)
		s.Nil(testutil.Cookie(rr, accessCookie), "activation must not start a session")
	})

	s.Run("wrong code", func() {
		s.activation.EXPECT().CompleteActivation(gomock.Any(), "act-token", "0000", "s3cret!").
			Return(nil, dErrors.New(dErrors.CodeActivationCodeMismatch, "invalid activation code"))

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/activate-user", map[string]string{
			"activation_token": "act-token", "activation_code": "0000", "password": "s3cret!",
		}))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeActivationCodeMismatch))
	})

	s.Run("expired ticket", func() {
		s.activation.EXPECT().CompleteActivation(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, token.ErrExpired)

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/activate-user", map[string]string{
			"activation_token": "old", "activation_code": "4821", "password": "s3cret!",
		}))
		testutil.AssertError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeTokenExpired))
	})
}

func (s *RouterSuite) TestLoginSetsCookies() {
	s.sessions.EXPECT().Login(gomock.Any(), "a@x.com", "s3cret!").Return(s.pair, s.user, nil)

	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/login",
		map[string]string{"email": "a@x.com", "password": "s3cret!"}))
	s.Require().Equal(http.StatusOK, rr.Code)

	body := testutil.DecodeJSON[sessionResponse](s.T(), rr)
	s.Equal(s.user.ID, body.User.ID)
	s.Equal("new-access", body.AccessToken)
	s.Equal("new-refresh", body.RefreshToken)

	for name, want := range map[string]string{accessCookie: "new-access", refreshCookie: "new-refresh"} {
		c := testutil.Cookie(rr, name)
		s.Require().NotNil(c, name)
		s.Equal(want, c.Value)
		s.True(c.HttpOnly)
		s.True(c.Secure)
	}
	s.Equal(300, testutil.Cookie(rr, accessCookie).MaxAge)
}

func (s *RouterSuite) TestLoginFailure() {
	s.sessions.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(session.TokenPair{}, account.AccountView{}, dErrors.New(dErrors.CodeInvalidCredentials, "invalid email or password"))

	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/login",
		map[string]string{"email": "a@x.com", "password": "nope"}))
	testutil.AssertError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeInvalidCredentials))
	s.Nil(testutil.Cookie(rr, accessCookie))
}

func (s *RouterSuite) TestSocialAuth() {
	s.sessions.EXPECT().SocialAuth(gomock.Any(), session.SocialProfile{
		Email:  "a@x.com",
		Name:   "Alex",
		Avatar: account.Avatar{PublicID: "av1", URL: "https://cdn.example.com/av1.png"},
	}).Return(s.pair, s.user, nil)

	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/social-auth", map[string]any{
		"email": "a@x.com", "name": "Alex",
		"avatar": map[string]string{"public_id": "av1", "url": "https://cdn.example.com/av1.png"},
	}))
	s.Equal(http.StatusOK, rr.Code)
	s.NotNil(testutil.Cookie(rr, refreshCookie))
}

func (s *RouterSuite) TestRefresh() {
	s.Run("cookie", func() {
		s.sessions.EXPECT().Refresh(gomock.Any(), "old-refresh").Return(s.pair, nil)
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/v1/refreshtoken", nil,
			testutil.WithCookie(refreshCookie, "old-refresh")))
		s.Equal(http.StatusOK, rr.Code)
		s.Equal("new-refresh", testutil.Cookie(rr, refreshCookie).Value)
	})

	s.Run("header", func() {
		s.sessions.EXPECT().Refresh(gomock.Any(), "hdr-refresh").Return(s.pair, nil)
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/v1/refreshtoken", nil,
			testutil.WithHeader(refreshTokenHeader, "hdr-refresh")))
		s.Equal(http.StatusOK, rr.Code)
		body := testutil.DecodeJSON[refreshResponse](s.T(), rr)
		s.Equal("new-access", body.AccessToken)
	})

	s.Run("missing", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/v1/refreshtoken", nil))
		testutil.AssertError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthenticated))
	})

	s.Run("session gone", func() {
		s.sessions.EXPECT().Refresh(gomock.Any(), "old-refresh").
			Return(session.TokenPair{}, dErrors.New(dErrors.CodeSessionNotFound, "session not found"))
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/v1/refreshtoken", nil,
			testutil.WithCookie(refreshCookie, "old-refresh")))
		testutil.AssertError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeSessionNotFound))
	})
}

func (s *RouterSuite) TestProtectedRoutesRequireToken() {
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/me"},
		{http.MethodGet, "/api/v1/logout"},
		{http.MethodPut, "/api/v1/update-user-info"},
		{http.MethodPut, "/api/v1/update-user-password"},
		{http.MethodPut, "/api/v1/update-user-avatar"},
		{http.MethodGet, "/api/v1/get-users"},
	} {
		s.Run(tc.path, func() {
			rr := s.do(testutil.NewJSONRequest(s.T(), tc.method, tc.path, nil))
			testutil.AssertError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthenticated))
		})
	}
}

func (s *RouterSuite) TestMe() {
	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/v1/me", nil, testutil.WithBearer(userToken)))
	s.Equal(http.StatusOK, rr.Code)
	body := testutil.DecodeJSON[accountResponse](s.T(), rr)
	s.Equal(s.user, body.User)
}

func (s *RouterSuite) TestLogout() {
	s.sessions.EXPECT().Logout(gomock.Any(), s.user.ID).Return(nil)

	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/v1/logout", nil,
		testutil.WithCookie(accessCookie, userToken)))
	s.Equal(http.StatusOK, rr.Code)
	for _, name := range []string{accessCookie, refreshCookie} {
		c := testutil.Cookie(rr, name)
		s.Require().NotNil(c)
		s.Empty(c.Value)
		s.Negative(c.MaxAge)
	}
}

func (s *RouterSuite) TestProfileUpdates() {
	s.Run("info passes only supplied fields", func() {
		s.accounts.EXPECT().UpdateInfo(gomock.Any(), s.user.ID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ domain.AccountID, in account.UpdateInfoInput) (account.AccountView, error) {
				s.Require().NotNil(in.Name)
				s.Equal("Alexandra", *in.Name)
				s.Nil(in.Email)
				updated := s.user
				updated.Name = *in.Name
				return updated, nil
			})

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/api/v1/update-user-info",
			map[string]string{"name": "Alexandra"}, testutil.WithBearer(userToken)))
		s.Equal(http.StatusOK, rr.Code)
		s.Equal("Alexandra", testutil.DecodeJSON[accountResponse](s.T(), rr).User.Name)
	})

	s.Run("password with wrong old password", func() {
		s.accounts.EXPECT().UpdatePassword(gomock.Any(), s.user.ID, "wrong", "n3w-secret").
			Return(account.AccountView{}, dErrors.New(dErrors.CodeInvalidCredentials, "invalid old password"))

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/api/v1/update-user-password",
			map[string]string{"old_password": "wrong", "new_password": "n3w-secret"}, testutil.WithBearer(userToken)))
		testutil.AssertError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeInvalidCredentials))
	})

	s.Run("avatar", func() {
		avatar := account.Avatar{PublicID: "av2", URL: "https://cdn.example.com/av2.png"}
		updated := s.user
		updated.Avatar = &avatar
		s.accounts.EXPECT().UpdateAvatar(gomock.Any(), s.user.ID, avatar).Return(updated, nil)

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/api/v1/update-user-avatar",
			map[string]any{"avatar": avatar}, testutil.WithBearer(userToken)))
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("store failure hides details", func() {
		s.accounts.EXPECT().UpdateAvatar(gomock.Any(), s.user.ID, gomock.Any()).
			Return(account.AccountView{}, dErrors.Wrap(errors.New("pq: connection reset"), dErrors.CodeInternal, "failed to save account"))

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/api/v1/update-user-avatar",
			map[string]any{"avatar": map[string]string{"public_id": "x", "url": "y"}}, testutil.WithBearer(userToken)))
		testutil.AssertError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
		s.NotContains(rr.Body.String(), "connection reset")
	})
}

func (s *RouterSuite) TestListAccountsIsAdminOnly() {
	s.Run("user is forbidden", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/v1/get-users", nil, testutil.WithBearer(userToken)))
		testutil.AssertError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})

	s.Run("admin lists", func() {
		s.accounts.EXPECT().List(gomock.Any()).Return([]account.AccountView{s.admin, s.user}, nil)
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/v1/get-users", nil, testutil.WithBearer(adminToken)))
		s.Equal(http.StatusOK, rr.Code)
		s.Len(testutil.DecodeJSON[accountsResponse](s.T(), rr).Users, 2)
	})
}

func (s *RouterSuite) TestRateLimitedLogin() {
	s.router = s.newRouter(ratelimit.New(1, 1), nil)
	s.sessions.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return(s.pair, s.user, nil)

	req := func() *http.Request {
		return testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/login",
			map[string]string{"email": "a@x.com", "password": "s3cret!"})
	}
	s.Equal(http.StatusOK, s.do(req()).Code)

	rr := s.do(req())
	testutil.AssertError(s.T(), rr, http.StatusTooManyRequests, string(dErrors.CodeRateLimited))
	s.NotEmpty(rr.Header().Get("Retry-After"))
}

func (s *RouterSuite) TestHealth() {
	s.Run("healthy", func() {
		s.router = s.newRouter(nil, map[string]HealthCheck{"redis": func(context.Context) error { return nil }})
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/healthz", nil))
		s.Equal(http.StatusOK, rr.Code)
		s.JSONEq(`{"status":"ok","checks":{"redis":"ok"}}`, rr.Body.String())
	})

	s.Run("degraded", func() {
		s.router = s.newRouter(nil, map[string]HealthCheck{"postgres": func(context.Context) error { return errors.New("down") }})
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/healthz", nil))
		s.Equal(http.StatusServiceUnavailable, rr.Code)
		s.JSONEq(`{"status":"degraded","checks":{"postgres":"unavailable"}}`, rr.Body.String())
	})
}

func (s *RouterSuite) TestRequestIDEchoed() {
	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/healthz", nil, testutil.WithHeader("X-Request-Id", "trace-42")))
	s.Equal("trace-42", rr.Header().Get("X-Request-Id"))
}
