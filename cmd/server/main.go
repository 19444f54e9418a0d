package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pedalgate/internal/health"
	"pedalgate/internal/identity"
	"pedalgate/internal/optimizer/audit"
	optimizerHandler "pedalgate/internal/optimizer/handler"
	optimizerMetrics "pedalgate/internal/optimizer/metrics"
	optimizerService "pedalgate/internal/optimizer/service"
	"pedalgate/internal/optimizer/upstream"
	"pedalgate/internal/platform/config"
	"pedalgate/internal/platform/httpserver"
	"pedalgate/internal/platform/logger"
	"pedalgate/internal/platform/metrics"
	"pedalgate/internal/platform/postgres"
	"pedalgate/internal/platform/redis"
	httptransport "pedalgate/internal/transport/http"
	"pedalgate/pkg/platform/middleware/trace"
)

// main wires dependencies, serves HTTP and shuts down in order: stop
// accepting requests, drain the audit queue, then close the stores.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("pedalgate exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := metrics.NewRegistry()
	optMetrics := optimizerMetrics.New(reg)

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		log.Warn("database unavailable, audit rows kept in memory", "error", err)
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, token revocation disabled", "error", err)
	}
	var revocations identity.RevocationList
	if redisClient != nil {
		defer redisClient.Close()
		revocations = identity.NewRedisRevocationList(redisClient.Client)
	}

	tokens := identity.NewTokenService(cfg.Auth)
	if !tokens.Configured() {
		log.Warn("JWT_SIGNING_KEY not set, every request will be unauthorized")
	}
	if !cfg.Optimizer.Configured() {
		log.Warn("OPTIMIZER_URL or OPTIMIZER_TOKEN not set, optimizer routes will answer optimizer_unavailable")
	}

	persister := audit.NewPersister(auditStore(db, log), log,
		audit.WithAsyncBuffer(cfg.Audit.AsyncBuffer),
		audit.WithMetrics(optMetrics),
	)
	defer persister.Close()

	client := upstream.New(cfg.Optimizer, upstream.WithMetrics(optMetrics))
	svc := optimizerService.New(client, persister,
		optimizerService.WithLogger(log),
		optimizerService.WithMetrics(optMetrics),
	)

	aggregator := health.NewAggregator(health.CheckDatabase, []health.Check{
		health.NewTableProbe(health.CheckDatabase, "users", db),
		health.NewTableProbe(health.CheckRewards, "rewards", db),
		health.NewMailProbe(cfg.Mail, nil),
	},
		health.WithTimeout(cfg.Health.CheckTimeout),
		health.WithLogger(log),
		health.WithRegisterer(reg),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:     log,
		Correlator: trace.New(),
		Callers:    identity.NewProvider(tokens, revocations),
		AdminRoles: cfg.Auth.AdminRoles,
		CORSOrigin: cfg.Server.CORSAllowOrigin,
		Metrics:    metrics.Handler(reg),
		Modules: []httptransport.Module{
			{
				Prefix:   "/optimize",
				Register: optimizerHandler.New(svc, log).Register,
				Routes:   optimizerHandler.Routes,
			},
			{
				Register: health.NewHandler(aggregator).Register,
				Routes:   map[string][]string{"/health": {http.MethodGet}},
			},
		},
	})

	srv := httpserver.New(cfg.Server, router)
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting pedalgate", "addr", cfg.Server.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func auditStore(db *sql.DB, log *slog.Logger) audit.Store {
	if db == nil {
		log.Warn("no database configured, optimizer audit rows are not durable")
		return audit.NewInMemoryStore()
	}
	return audit.NewPostgresStore(db)
}
