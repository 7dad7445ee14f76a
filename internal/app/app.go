// Package app assembles the services and HTTP stack from configuration and
// already-connected adapters. main and the end-to-end tests share it.
package app

import (
	"log/slog"
	"net/http"

	"learnhub/internal/account"
	"learnhub/internal/audit"
	"learnhub/internal/auth/activation"
	"learnhub/internal/auth/gate"
	"learnhub/internal/auth/session"
	"learnhub/internal/mail"
	"learnhub/internal/platform/config"
	"learnhub/internal/platform/metrics"
	"learnhub/internal/platform/ratelimit"
	"learnhub/internal/token"
	httptransport "learnhub/internal/transport/http"
)

// Deps are the adapters chosen by the caller.
type Deps struct {
	Cache        session.Cache
	Accounts     account.Store
	Mailer       mail.Mailer
	Audit        audit.Publisher
	Metrics      *metrics.Metrics
	MetricsPage  http.Handler
	HealthChecks map[string]httptransport.HealthCheck
	Logger       *slog.Logger
}

// NewHandler builds every service and returns the routed HTTP handler.
func NewHandler(cfg config.Server, deps Deps) (http.Handler, error) {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	if deps.Audit == nil {
		deps.Audit = audit.NewLogPublisher(log)
	}

	codec, err := token.NewCodec(token.Config{
		ActivationSecret: cfg.Tokens.ActivationSecret,
		AccessSecret:     cfg.Tokens.AccessSecret,
		RefreshSecret:    cfg.Tokens.RefreshSecret,
		Issuer:           cfg.Tokens.Issuer,
	})
	if err != nil {
		return nil, err
	}

	sessions, err := session.NewManager(codec, deps.Cache, deps.Accounts, session.Config{
		AccessTTL:  cfg.Tokens.AccessTTL,
		RefreshTTL: cfg.Tokens.RefreshTTL,
	},
		session.WithLogger(log),
		session.WithAuditPublisher(deps.Audit),
		session.WithMetrics(deps.Metrics),
	)
	if err != nil {
		return nil, err
	}

	activations, err := activation.New(codec, deps.Accounts, deps.Mailer, activation.Config{
		TTL:        cfg.Tokens.ActivationTTL,
		CodeDigits: cfg.Tokens.ActivationCodeDigits,
		CodeKey:    []byte(cfg.Tokens.ActivationSecret),
	},
		activation.WithLogger(log),
		activation.WithAuditPublisher(deps.Audit),
		activation.WithMetrics(deps.Metrics),
	)
	if err != nil {
		return nil, err
	}

	accounts := account.NewService(deps.Accounts, sessions, account.WithLogger(log))

	handler := httptransport.NewHandler(activations, sessions, accounts, httptransport.CookieConfig{
		Secure:     cfg.CookieSecure,
		AccessTTL:  cfg.Tokens.AccessTTL,
		RefreshTTL: cfg.Tokens.RefreshTTL,
	}, log)

	return httptransport.NewRouter(handler, httptransport.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.AllowedOrigins,
		Gate:           gate.New(sessions, gate.WithLogger(log), gate.WithMetrics(deps.Metrics)),
		Limiter:        ratelimit.New(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, ratelimit.WithLogger(log)),
		Metrics:        deps.MetricsPage,
		HealthChecks:   deps.HealthChecks,
		Logger:         log,
	}), nil
}
