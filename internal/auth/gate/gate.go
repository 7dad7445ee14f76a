// Package gate authenticates access tokens against live sessions and
// authorizes the resulting account views by role.
package gate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"learnhub/internal/account"
	"learnhub/internal/platform/metrics"
	"learnhub/pkg/domain"
	dErrors "learnhub/pkg/domain-errors"
	"learnhub/pkg/platform/httputil"
	"learnhub/pkg/requestcontext"
)

// AccessCookie is the cookie RequireAuth falls back to when no bearer header
// is sent.
const AccessCookie = "access_token"

const (
	reasonMissingToken    = "missing_token"
	reasonInvalidToken    = "invalid_token"
	reasonNoSession       = "session_not_found"
	reasonSessionError    = "session_error"
	reasonForbidden       = "forbidden"
	reasonUnauthenticated = "unauthenticated"
)

var (
	errMissingToken = dErrors.New(dErrors.CodeUnauthenticated, "missing token")
	errInvalidToken = dErrors.New(dErrors.CodeUnauthenticated, "invalid or expired token")
	errNoSession    = dErrors.New(dErrors.CodeUnauthenticated, "session not found")
	errNoView       = dErrors.New(dErrors.CodeUnauthenticated, "authentication required")
	errForbidden    = dErrors.New(dErrors.CodeForbidden, "insufficient permissions")
)

// Sessions is the read side of the session manager.
type Sessions interface {
	VerifyAccess(accessToken string) (domain.AccountID, error)
	Session(ctx context.Context, id domain.AccountID) (account.AccountView, error)
}

type Gate struct {
	sessions Sessions
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Gate)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

func New(sessions Sessions, opts ...Option) *Gate {
	g := &Gate{
		sessions: sessions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authenticate resolves an access token to the account view of a live
// session. Expired and invalid tokens are reported identically.
func (g *Gate) Authenticate(ctx context.Context, accessToken string) (account.AccountView, error) {
	if strings.TrimSpace(accessToken) == "" {
		g.reject(ctx, reasonMissingToken, nil)
		return account.AccountView{}, errMissingToken
	}
	id, err := g.sessions.VerifyAccess(accessToken)
	if err != nil {
		g.reject(ctx, reasonInvalidToken, err)
		return account.AccountView{}, errInvalidToken
	}
	view, err := g.sessions.Session(ctx, id)
	switch {
	case err == nil:
		return view, nil
	case dErrors.HasCode(err, dErrors.CodeSessionNotFound):
		g.reject(ctx, reasonNoSession, nil)
		return account.AccountView{}, errNoSession
	default:
		g.metrics.ObserveGateRejection(reasonSessionError)
		g.logger.ErrorContext(ctx, "session lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return account.AccountView{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
}

// Authorize admits view when its role is in required. A nil view, an unknown
// role or an empty set is always forbidden.
func (g *Gate) Authorize(ctx context.Context, view *account.AccountView, required domain.RoleSet) error {
	if view == nil || required.Empty() || !required.Contains(view.Role) {
		g.metrics.ObserveGateRejection(reasonForbidden)
		attrs := []any{"request_id", requestcontext.RequestID(ctx)}
		if view != nil {
			attrs = append(attrs, "account_id", view.ID.String())
		}
		g.logger.WarnContext(ctx, "access denied", attrs...)
		return errForbidden
	}
	return nil
}

// RequireAuth authenticates the bearer token, or the access cookie when no
// Authorization header is present, and stores the view in the context.
func (g *Gate) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		view, err := g.Authenticate(ctx, accessTokenFrom(r))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		ctx = WithAccount(ctx, view)
		ctx = requestcontext.WithAccountID(ctx, view.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole must run after RequireAuth.
func (g *Gate) RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	required := domain.Roles(roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			view, ok := AccountFrom(ctx)
			if !ok {
				g.reject(ctx, reasonUnauthenticated, nil)
				httputil.WriteError(w, errNoView)
				return
			}
			if err := g.Authorize(ctx, &view, required); err != nil {
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Gate) reject(ctx context.Context, reason string, err error) {
	g.metrics.ObserveGateRejection(reason)
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"reason", reason,
	}
	if err != nil {
		attrs = append(attrs, "error_code", string(dErrors.CodeOf(err)))
	}
	g.logger.WarnContext(ctx, "unauthenticated request", attrs...)
}

func accessTokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		const scheme = "Bearer "
		if len(h) > len(scheme) && strings.EqualFold(h[:len(scheme)], scheme) {
			return strings.TrimSpace(h[len(scheme):])
		}
		return ""
	}
	c, err := r.Cookie(AccessCookie)
	if errors.Is(err, http.ErrNoCookie) {
		return ""
	}
	return c.Value
}
