// Package session owns signed-in state: it authenticates credentials, issues
// access/refresh token pairs and keeps the server-side session cache. The
// cache entry keyed by account id is the only truth of "signed in"; no other
// package reads or writes it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"learnhub/internal/account"
	"learnhub/internal/audit"
	"learnhub/internal/platform/metrics"
	"learnhub/internal/token"
	"learnhub/pkg/domain"
	dErrors "learnhub/pkg/domain-errors"
	pkgemail "learnhub/pkg/email"
	"learnhub/pkg/platform/sentinel"
	"learnhub/pkg/requestcontext"
)

const (
	keyPrefix = "session:"

	MethodPassword = "password"
	MethodSocial   = "social"
)

var (
	errInvalidCredentials = dErrors.New(dErrors.CodeInvalidCredentials, "invalid email or password")
	errSessionNotFound    = dErrors.New(dErrors.CodeSessionNotFound, "session not found")
)

// Config holds the token lifetimes. Sessions live as long as refresh tokens.
type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenPair is the result of a login or refresh.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// SocialProfile is an identity already asserted by an external provider.
type SocialProfile struct {
	Email  string
	Name   string
	Avatar account.Avatar
}

// subject is the payload of access and refresh tokens.
type subject struct {
	AccountID domain.AccountID `json:"aid"`
}

type Manager struct {
	codec    *token.Codec
	cache    Cache
	accounts account.Store
	cfg      Config

	audit   audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(m *Manager) {
		m.audit = p
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// WithClock sets the clock used to stamp returned expiry times. Pass the same
// clock to the token codec.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(codec *token.Codec, cache Cache, accounts account.Store, cfg Config, opts ...Option) (*Manager, error) {
	if codec == nil || cache == nil || accounts == nil {
		return nil, errors.New("session: codec, cache and account store are required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("session: TTLs must be positive (access %s, refresh %s)", cfg.AccessTTL, cfg.RefreshTTL)
	}
	m := &Manager{
		codec:    codec,
		cache:    cache,
		accounts: accounts,
		cfg:      cfg,
		logger:   slog.Default(),
		tracer:   otel.Tracer("learnhub/internal/auth/session"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.audit == nil {
		m.audit = audit.NewLogPublisher(m.logger)
	}
	return m, nil
}

// Login verifies an email and password and starts a session. Unknown emails,
// wrong passwords and password-less accounts fail identically.
func (m *Manager) Login(ctx context.Context, email, rawPassword string) (pair TokenPair, view account.AccountView, err error) {
	ctx, span := m.tracer.Start(ctx, "session.Login")
	defer func() { endSpan(span, err) }()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || rawPassword == "" {
		return TokenPair{}, account.AccountView{}, dErrors.New(dErrors.CodeBadRequest, "email and password are required")
	}

	a, err := m.accounts.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		account.EqualizeTiming(rawPassword)
		return TokenPair{}, account.AccountView{}, m.loginFailed(ctx, domain.AccountID{}, "unknown_email")
	case err != nil:
		return TokenPair{}, account.AccountView{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}

	if !a.ComparePassword(rawPassword) {
		return TokenPair{}, account.AccountView{}, m.loginFailed(ctx, a.ID, "wrong_password")
	}

	return m.start(ctx, a, MethodPassword)
}

// SocialAuth signs in an externally asserted identity, creating a verified
// password-less account on first sight. It trusts the profile as given: the
// caller must have verified the provider's assertion (ID token, OAuth
// exchange) before calling, since any existing account with that email,
// password accounts included, gets a session.
func (m *Manager) SocialAuth(ctx context.Context, p SocialProfile) (pair TokenPair, view account.AccountView, err error) {
	ctx, span := m.tracer.Start(ctx, "session.SocialAuth")
	defer func() { endSpan(span, err) }()

	email, err := account.NormalizeEmail(p.Email)
	if err != nil {
		return TokenPair{}, account.AccountView{}, err
	}

	a, err := m.accounts.FindByEmail(ctx, email)
	if errors.Is(err, sentinel.ErrNotFound) {
		a, err = m.createSocial(ctx, email, p)
	}
	if err != nil {
		var de *dErrors.Error
		if errors.As(err, &de) {
			return TokenPair{}, account.AccountView{}, err
		}
		return TokenPair{}, account.AccountView{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}

	return m.start(ctx, a, MethodSocial)
}

func (m *Manager) createSocial(ctx context.Context, email string, p SocialProfile) (*account.Account, error) {
	name := p.Name
	if strings.TrimSpace(name) == "" {
		name = pkgemail.DisplayName(email)
	}
	a, err := account.NewSocialAccount(email, name, p.Avatar, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := m.accounts.Create(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost a race with a concurrent sign-in of the same identity.
			return m.accounts.FindByEmail(ctx, email)
		}
		return nil, err
	}
	m.metrics.IncrementAccountsCreated()
	m.emit(ctx, audit.Event{Action: audit.ActionAccountCreated, AccountID: a.ID, Method: MethodSocial})
	return a, nil
}

// Refresh exchanges a valid refresh token for a new pair. The session must
// still exist; its lifetime restarts.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (pair TokenPair, err error) {
	ctx, span := m.tracer.Start(ctx, "session.Refresh")
	defer func() {
		endSpan(span, err)
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeFailure
		}
		m.metrics.ObserveRefresh(outcome)
	}()

	var sub subject
	if err := m.codec.Verify(token.KindRefresh, refreshToken, &sub); err != nil {
		m.emit(ctx, audit.Event{Action: audit.ActionRefreshRejected, Reason: string(dErrors.CodeOf(err))})
		return TokenPair{}, err
	}

	view, err := m.Session(ctx, sub.AccountID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeSessionNotFound) {
			m.emit(ctx, audit.Event{Action: audit.ActionRefreshRejected, AccountID: sub.AccountID, Reason: "session_not_found"})
		}
		return TokenPair{}, err
	}

	pair, err = m.issue(view.ID)
	if err != nil {
		return TokenPair{}, err
	}
	// Replace rather than Set: a logout racing this refresh must win.
	if err := m.replace(ctx, view, m.cfg.RefreshTTL); err != nil {
		return TokenPair{}, err
	}

	span.SetAttributes(attribute.String("account.id", view.ID.String()))
	m.emit(ctx, audit.Event{Action: audit.ActionSessionRefreshed, AccountID: view.ID})
	return pair, nil
}

// Logout ends the session. Ending an absent session is not an error.
func (m *Manager) Logout(ctx context.Context, id domain.AccountID) (err error) {
	ctx, span := m.tracer.Start(ctx, "session.Logout")
	defer func() { endSpan(span, err) }()

	if err := m.cache.Delete(ctx, key(id)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to end session")
	}
	m.emit(ctx, audit.Event{Action: audit.ActionSessionEnded, AccountID: id})
	return nil
}

// InvalidateOnMutation overwrites the cached view after an account change.
// Signed-out accounts stay signed out. The remaining session lifetime is kept.
func (m *Manager) InvalidateOnMutation(ctx context.Context, view account.AccountView) (err error) {
	ctx, span := m.tracer.Start(ctx, "session.InvalidateOnMutation")
	defer func() { endSpan(span, err) }()

	err = m.replace(ctx, view, KeepTTL)
	if dErrors.HasCode(err, dErrors.CodeSessionNotFound) {
		return nil
	}
	return err
}

// Session returns the cached view for id, or a session_not_found error.
func (m *Manager) Session(ctx context.Context, id domain.AccountID) (account.AccountView, error) {
	raw, err := m.cache.Get(ctx, key(id))
	if errors.Is(err, sentinel.ErrNotFound) {
		return account.AccountView{}, errSessionNotFound
	}
	if err != nil {
		return account.AccountView{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read session")
	}
	var view account.AccountView
	if err := json.Unmarshal(raw, &view); err != nil || view.ID != id {
		return account.AccountView{}, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt session entry")
	}
	return view, nil
}

// VerifyAccess checks an access token and returns the account it names.
func (m *Manager) VerifyAccess(accessToken string) (domain.AccountID, error) {
	var sub subject
	if err := m.codec.Verify(token.KindAccess, accessToken, &sub); err != nil {
		return domain.AccountID{}, err
	}
	return sub.AccountID, nil
}

func (m *Manager) start(ctx context.Context, a *account.Account, method string) (TokenPair, account.AccountView, error) {
	view := a.View()
	pair, err := m.issue(a.ID)
	if err != nil {
		return TokenPair{}, account.AccountView{}, err
	}

	raw, err := json.Marshal(view)
	if err != nil {
		return TokenPair{}, account.AccountView{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode session")
	}
	if err := m.cache.Set(ctx, key(a.ID), raw, m.cfg.RefreshTTL); err != nil {
		return TokenPair{}, account.AccountView{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write session")
	}

	m.metrics.ObserveLogin(method, metrics.OutcomeSuccess)
	m.emit(ctx, audit.Event{Action: audit.ActionLoginSucceeded, AccountID: a.ID, Method: method})
	return pair, view, nil
}

func (m *Manager) issue(id domain.AccountID) (TokenPair, error) {
	now := m.now()
	sub := subject{AccountID: id}

	access, err := m.codec.Issue(token.KindAccess, sub, m.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue access token")
	}
	refresh, err := m.codec.Issue(token.KindRefresh, sub, m.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue refresh token")
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(m.cfg.AccessTTL),
		RefreshExpiresAt: now.Add(m.cfg.RefreshTTL),
	}, nil
}

func (m *Manager) replace(ctx context.Context, view account.AccountView, ttl time.Duration) error {
	raw, err := json.Marshal(view)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode session")
	}
	replaced, err := m.cache.Replace(ctx, key(view.ID), raw, ttl)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write session")
	}
	if !replaced {
		return errSessionNotFound
	}
	return nil
}

func (m *Manager) loginFailed(ctx context.Context, id domain.AccountID, reason string) error {
	m.metrics.ObserveLogin(MethodPassword, metrics.OutcomeFailure)
	m.logger.WarnContext(ctx, "login failed",
		"request_id", requestcontext.RequestID(ctx),
		"reason", reason,
	)
	m.emit(ctx, audit.Event{Action: audit.ActionLoginFailed, AccountID: id, Reason: reason})
	return errInvalidCredentials
}

// emit publishes best-effort; audit sink failures never fail the operation.
func (m *Manager) emit(ctx context.Context, ev audit.Event) {
	if err := m.audit.Emit(ctx, audit.Enrich(ctx, ev)); err != nil {
		m.logger.ErrorContext(ctx, "failed to publish audit event",
			"request_id", requestcontext.RequestID(ctx),
			"action", string(ev.Action),
			"error", err,
		)
	}
}

func key(id domain.AccountID) string {
	return keyPrefix + id.String()
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
