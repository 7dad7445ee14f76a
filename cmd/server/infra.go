package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"learnhub/internal/account"
	"learnhub/internal/audit"
	"learnhub/internal/auth/session"
	"learnhub/internal/mail"
	"learnhub/internal/platform/config"
	"learnhub/internal/platform/metrics"
	"learnhub/internal/platform/postgres"
	"learnhub/internal/platform/redis"
	httptransport "learnhub/internal/transport/http"
)

const auditQueueSize = 1024

// infra holds the adapters chosen from configuration. Every external system
// is optional in development and falls back to an in-process implementation.
type infra struct {
	cache        session.Cache
	accounts     account.Store
	mailer       mail.Mailer
	audit        audit.Publisher
	auditWorker  *audit.Worker
	healthChecks map[string]httptransport.HealthCheck

	closers []func()
}

func (i *infra) Close() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		i.closers[j]()
	}
}

func connect(ctx context.Context, cfg config.Server, log *slog.Logger, m *metrics.Metrics) (*infra, error) {
	i := &infra{healthChecks: map[string]httptransport.HealthCheck{}}
	ok := false
	defer func() {
		if !ok {
			i.Close()
		}
	}()

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		i.cache = session.NewRedisCache(rdb.Client, session.WithCacheMetrics(m))
		i.healthChecks["redis"] = rdb.Health
		i.closers = append(i.closers, func() { _ = rdb.Close() })
	} else {
		log.Warn("REDIS_URL not set, using in-memory session cache")
		i.cache = session.NewMemoryCache()
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if pool != nil {
		store := account.NewPostgresStore(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate accounts: %w", err)
		}
		i.accounts = store
		i.healthChecks["postgres"] = func(ctx context.Context) error { return postgres.Ping(ctx, pool) }
		i.closers = append(i.closers, pool.Close)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory account store")
		i.accounts = account.NewInMemoryStore()
	}

	renderer, err := mail.NewRenderer()
	if err != nil {
		return nil, err
	}
	if cfg.SMTP.Host != "" {
		i.mailer = mail.NewSMTPMailer(cfg.SMTP, renderer)
	} else {
		log.Warn("SMTP_HOST not set, activation emails are logged instead of sent")
		i.mailer = mail.NewLogMailer(renderer, log)
	}

	logAudit := audit.NewLogPublisher(log)
	i.audit = logAudit
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := audit.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return nil, err
		}
		i.closers = append(i.closers, kp.Close)
		if err := kp.EnsureTopic(ctx, 3, 1); err != nil {
			return nil, err
		}
		queue := audit.NewQueue(auditQueueSize, log)
		i.auditWorker = audit.NewWorker(queue, kp, audit.WithCircuitBreaker(5, 30*time.Second))
		i.audit = audit.Multi{logAudit, queue}
		i.healthChecks["kafka"] = kp.Ping
	}

	ok = true
	return i, nil
}
