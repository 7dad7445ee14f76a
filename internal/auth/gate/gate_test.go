package gate_test

//go:generate mockgen -source=gate.go -destination=mocks/mocks.go -package=mocks Sessions

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"learnhub/internal/account"
	"learnhub/internal/auth/gate"
	"learnhub/internal/auth/gate/mocks"
	"learnhub/internal/platform/metrics"
	"learnhub/internal/token"
	"learnhub/pkg/domain"
	dErrors "learnhub/pkg/domain-errors"
	"learnhub/pkg/requestcontext"
	httptestutil "learnhub/pkg/testutil"
)

type GateSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	sessions *mocks.MockSessions
	metrics  *metrics.Metrics
	logs     *bytes.Buffer
	gate     *gate.Gate
	view     account.AccountView
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	s.ctx = requestcontext.WithRequestID(context.Background(), "req-1")
	s.ctrl = gomock.NewController(s.T())
	s.sessions = mocks.NewMockSessions(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.logs = &bytes.Buffer{}
	s.gate = gate.New(s.sessions,
		gate.WithMetrics(s.metrics),
		gate.WithLogger(slog.New(slog.NewTextHandler(s.logs, nil))),
	)
	s.view = account.AccountView{
		ID:    domain.NewAccountID(),
		Name:  "Alex",
		Email: "a@x.com",
		Role:  domain.RoleUser,
	}
}

func (s *GateSuite) rejections(reason string) float64 {
	return testutil.ToFloat64(s.metrics.GateRejections.WithLabelValues(reason))
}

func (s *GateSuite) TestAuthenticate() {
	s.Run("live session", func() {
		s.sessions.EXPECT().VerifyAccess("good").Return(s.view.ID, nil)
		s.sessions.EXPECT().Session(gomock.Any(), s.view.ID).Return(s.view, nil)

		got, err := s.gate.Authenticate(s.ctx, "good")
		s.Require().NoError(err)
		s.Equal(s.view, got)
	})

	s.Run("missing token", func() {
		_, err := s.gate.Authenticate(s.ctx, "  ")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
		s.EqualError(err, "missing token")
		s.Equal(1.0, s.rejections("missing_token"))
	})

	s.Run("expired and invalid tokens look the same", func() {
		s.sessions.EXPECT().VerifyAccess("old").Return(domain.AccountID{}, token.ErrExpired)
		s.sessions.EXPECT().VerifyAccess("junk").Return(domain.AccountID{}, token.ErrInvalid)

		_, errExpired := s.gate.Authenticate(s.ctx, "old")
		_, errInvalid := s.gate.Authenticate(s.ctx, "junk")
		s.Equal(errExpired, errInvalid)
		s.EqualError(errExpired, "invalid or expired token")
		s.True(dErrors.HasCode(errExpired, dErrors.CodeUnauthenticated))
	})

	s.Run("logged out", func() {
		s.sessions.EXPECT().VerifyAccess("good").Return(s.view.ID, nil)
		s.sessions.EXPECT().Session(gomock.Any(), s.view.ID).
			Return(account.AccountView{}, dErrors.New(dErrors.CodeSessionNotFound, "session not found"))

		_, err := s.gate.Authenticate(s.ctx, "good")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
		s.EqualError(err, "session not found")
	})

	s.Run("cache failure is internal", func() {
		s.sessions.EXPECT().VerifyAccess("good").Return(s.view.ID, nil)
		s.sessions.EXPECT().Session(gomock.Any(), s.view.ID).
			Return(account.AccountView{}, dErrors.Wrap(errors.New("dial tcp: refused"), dErrors.CodeInternal, "failed to read session"))

		_, err := s.gate.Authenticate(s.ctx, "good")
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.NotContains(s.logs.String(), "good")
	s.Contains(s.logs.String(), "request_id=req-1")
}

func (s *GateSuite) TestAuthorize() {
	admin := s.view
	admin.Role = domain.RoleAdmin
	odd := s.view
	odd.Role = domain.Role("Admin")

	tests := []struct {
		name     string
		view     *account.AccountView
		required domain.RoleSet
		allowed  bool
	}{
		{"admin on admin route", &admin, domain.Roles(domain.RoleAdmin), true},
		{"user on any-role route", &s.view, domain.Roles(domain.RoleUser, domain.RoleAdmin), true},
		{"user on admin route", &s.view, domain.Roles(domain.RoleAdmin), false},
		{"unknown role", &odd, domain.Roles(domain.RoleAdmin), false},
		{"empty required set", &admin, domain.Roles(), false},
		{"nil view", nil, domain.Roles(domain.RoleUser), false},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := s.gate.Authorize(s.ctx, tt.view, tt.required)
			if tt.allowed {
				s.NoError(err)
				return
			}
			s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
			s.EqualError(err, "insufficient permissions")
		})
	}
	s.NotContains(s.logs.String(), "admin")
}

func (s *GateSuite) protected(h http.Handler) http.Handler {
	return s.gate.RequireAuth(h)
}

func (s *GateSuite) TestRequireAuth() {
	var seen account.AccountView
	var seenID domain.AccountID
	h := s.protected(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = gate.AccountFrom(r.Context())
		seenID = requestcontext.AccountID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	s.Run("bearer header", func() {
		s.sessions.EXPECT().VerifyAccess("tok").Return(s.view.ID, nil)
		s.sessions.EXPECT().Session(gomock.Any(), s.view.ID).Return(s.view, nil)

		req := httptestutil.NewRawRequest(s.T(), http.MethodGet, "/me", "", httptestutil.WithBearer("tok"))
		rr := httptestutil.Do(h, req)
		s.Equal(http.StatusNoContent, rr.Code)
		s.Equal(s.view, seen)
		s.Equal(s.view.ID, seenID)
	})

	s.Run("scheme is case-insensitive", func() {
		s.sessions.EXPECT().VerifyAccess("lower-tok").Return(s.view.ID, nil)
		s.sessions.EXPECT().Session(gomock.Any(), s.view.ID).Return(s.view, nil)

		req := httptestutil.NewRawRequest(s.T(), http.MethodGet, "/me", "",
			httptestutil.WithHeader("Authorization", "bearer lower-tok"))
		rr := httptestutil.Do(h, req)
		s.Equal(http.StatusNoContent, rr.Code)
	})

	s.Run("cookie", func() {
		s.sessions.EXPECT().VerifyAccess("cookie-tok").Return(s.view.ID, nil)
		s.sessions.EXPECT().Session(gomock.Any(), s.view.ID).Return(s.view, nil)

		req := httptestutil.NewRawRequest(s.T(), http.MethodGet, "/me", "",
			httptestutil.WithCookie(gate.AccessCookie, "cookie-tok"))
		rr := httptestutil.Do(h, req)
		s.Equal(http.StatusNoContent, rr.Code)
	})

	s.Run("no credentials", func() {
		req := httptestutil.NewRawRequest(s.T(), http.MethodGet, "/me", "")
		rr := httptestutil.Do(h, req)
		httptestutil.AssertError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthenticated))
	})

	s.Run("non-bearer authorization header", func() {
		req := httptestutil.NewRawRequest(s.T(), http.MethodGet, "/me", "",
			httptestutil.WithHeader("Authorization", "Basic Zm9vOmJhcg=="))
		rr := httptestutil.Do(h, req)
		httptestutil.AssertError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthenticated))
	})
}

func (s *GateSuite) TestRequireRole() {
	admin := s.view
	admin.Role = domain.RoleAdmin
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	adminOnly := s.protected(s.gate.RequireRole(domain.RoleAdmin)(ok))

	s.Run("admin passes", func() {
		s.sessions.EXPECT().VerifyAccess("tok").Return(admin.ID, nil)
		s.sessions.EXPECT().Session(gomock.Any(), admin.ID).Return(admin, nil)

		req := httptestutil.NewRawRequest(s.T(), http.MethodGet, "/get-users", "", httptestutil.WithBearer("tok"))
		s.Equal(http.StatusOK, httptestutil.Do(adminOnly, req).Code)
	})

	s.Run("user is forbidden", func() {
		s.sessions.EXPECT().VerifyAccess("tok").Return(s.view.ID, nil)
		s.sessions.EXPECT().Session(gomock.Any(), s.view.ID).Return(s.view, nil)

		req := httptestutil.NewRawRequest(s.T(), http.MethodGet, "/get-users", "", httptestutil.WithBearer("tok"))
		rr := httptestutil.Do(adminOnly, req)
		httptestutil.AssertError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})

	s.Run("without RequireAuth", func() {
		req := httptestutil.NewRawRequest(s.T(), http.MethodGet, "/get-users", "")
		rr := httptestutil.Do(s.gate.RequireRole(domain.RoleAdmin)(ok), req)
		httptestutil.AssertError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthenticated))
	})
}
