package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	accountadmin "dealerdesk/contexts/identity-access/account-admin-service"
	eventsadapter "dealerdesk/contexts/identity-access/account-admin-service/adapters/events"
	identityadapter "dealerdesk/contexts/identity-access/account-admin-service/adapters/identity"
	postgresadapter "dealerdesk/contexts/identity-access/account-admin-service/adapters/postgres"
	"dealerdesk/contexts/identity-access/account-admin-service/application/workers"
	"dealerdesk/internal/platform/config"
	"dealerdesk/internal/platform/db"
	"dealerdesk/internal/platform/httpserver"
	"dealerdesk/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres          *db.Postgres
	reconciler        workers.ProfileReconciler
	outboxRelay       workers.OutboxRelay
	enableReconciler  bool
	enableOutboxRelay bool
	pollInterval      time.Duration
	logger            *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	if strings.TrimSpace(cfg.IdentityAPIURL) == "" {
		return nil, errors.New("IDENTITY_API_URL is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	identity := identityadapter.NewClient(cfg.IdentityAPIURL, cfg.IdentityAPIToken, logger)
	module := accountadmin.NewModule(accountadmin.Dependencies{
		Identity:     identity,
		Profiles:     repo,
		Audit:        repo,
		SyncFailures: repo,
		Outbox:       repo,
		Clock:        postgresadapter.SystemClock{},
		IDGenerator:  postgresadapter.UUIDGenerator{},
		Logger:       logger,
	})

	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		reconciler: workers.ProfileReconciler{
			SyncFailures: repo,
			Profiles:     repo,
			Clock:        postgresadapter.SystemClock{},
			BatchSize:    100,
			Logger:       logger,
		},
		outboxRelay: workers.OutboxRelay{
			Outbox:    repo,
			Publisher: eventsadapter.NewPublisher(kafka, "identity.account_changed", logger),
			Clock:     postgresadapter.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		enableReconciler:  cfg.EnableProfileReconciler,
		enableOutboxRelay: cfg.EnableOutboxRelay,
		pollInterval:      cfg.WorkerPollInterval,
		logger:            logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if w.enableReconciler {
			if err := w.reconciler.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.enableOutboxRelay {
			if err := w.outboxRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
