package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"learnhub/internal/app"
	"learnhub/internal/platform/config"
	"learnhub/internal/platform/httpserver"
	"learnhub/internal/platform/logger"
	"learnhub/internal/platform/metrics"
)

const shutdownTimeout = 10 * time.Second

// main wires dependencies and owns the process lifecycle. Business logic lives
// in the internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	log := logger.New(logger.Config{
		Service: "learnhub",
		Env:     cfg.Environment,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	m := metrics.New(prometheus.DefaultRegisterer)

	infra, err := connect(ctx, cfg, log, m)
	if err != nil {
		return err
	}
	defer infra.Close()

	router, err := app.NewHandler(cfg, app.Deps{
		Cache:        infra.cache,
		Accounts:     infra.accounts,
		Mailer:       infra.mailer,
		Audit:        infra.audit,
		Metrics:      m,
		HealthChecks: infra.healthChecks,
		Logger:       log,
	})
	if err != nil {
		return err
	}

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	if infra.auditWorker != nil {
		g.Go(func() error { return infra.auditWorker.Run(gctx) })
	}
	g.Go(func() error {
		log.Info("starting learnhub", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
