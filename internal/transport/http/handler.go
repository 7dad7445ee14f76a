// Package httptransport exposes the account, activation and session
// operations over JSON HTTP.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"learnhub/internal/account"
	"learnhub/internal/auth/session"
	"learnhub/pkg/domain"
	dErrors "learnhub/pkg/domain-errors"
	"learnhub/pkg/platform/httputil"
	"learnhub/pkg/requestcontext"
)

const (
	accessCookie       = "access_token"
	refreshCookie      = "refresh_token"
	refreshTokenHeader = "X-Refresh-Token"

	maxBodyBytes = 1 << 20
)

// Activation starts and completes registrations.
type Activation interface {
	BeginActivation(ctx context.Context, email, name, rawPassword string) (activationToken, code string, err error)
	CompleteActivation(ctx context.Context, activationToken, code, rawPassword string) (*account.Account, error)
}

// Sessions issues, rotates and ends sessions.
type Sessions interface {
	Login(ctx context.Context, email, rawPassword string) (session.TokenPair, account.AccountView, error)
	SocialAuth(ctx context.Context, p session.SocialProfile) (session.TokenPair, account.AccountView, error)
	Refresh(ctx context.Context, refreshToken string) (session.TokenPair, error)
	Logout(ctx context.Context, id domain.AccountID) error
}

// Accounts mutates and lists account profiles.
type Accounts interface {
	UpdateInfo(ctx context.Context, id domain.AccountID, in account.UpdateInfoInput) (account.AccountView, error)
	UpdatePassword(ctx context.Context, id domain.AccountID, oldPassword, newPassword string) (account.AccountView, error)
	UpdateAvatar(ctx context.Context, id domain.AccountID, avatar account.Avatar) (account.AccountView, error)
	List(ctx context.Context) ([]account.AccountView, error)
}

// CookieConfig controls the token cookies set on login and refresh.
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Handler struct {
	activation Activation
	sessions   Sessions
	accounts   Accounts
	cookies    CookieConfig
	logger     *slog.Logger
}

func NewHandler(activation Activation, sessions Sessions, accounts Accounts, cookies CookieConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		activation: activation,
		sessions:   sessions,
		accounts:   accounts,
		cookies:    cookies,
		logger:     logger,
	}
}

// decode reads a JSON body, rejecting unknown fields and trailing data.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil || dec.More() {
		ctx := r.Context()
		h.logger.WarnContext(ctx, "invalid request body",
			"request_id", requestcontext.RequestID(ctx),
			"path", r.URL.Path,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

// fail writes err and logs anything that is not a client error.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		ctx := r.Context()
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

func (h *Handler) setTokenCookies(w http.ResponseWriter, pair session.TokenPair) {
	http.SetCookie(w, h.cookie(accessCookie, pair.AccessToken, h.cookies.AccessTTL))
	http.SetCookie(w, h.cookie(refreshCookie, pair.RefreshToken, h.cookies.RefreshTTL))
}

func (h *Handler) clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookie, refreshCookie} {
		c := h.cookie(name, "", 0)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (h *Handler) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
