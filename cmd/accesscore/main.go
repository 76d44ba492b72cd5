package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/kabro/accesscore/pkg/api"
	"github.com/kabro/accesscore/pkg/audit"
	"github.com/kabro/accesscore/pkg/config"
	"github.com/kabro/accesscore/pkg/decision"
	"github.com/kabro/accesscore/pkg/delegation"
	"github.com/kabro/accesscore/pkg/identity"
	"github.com/kabro/accesscore/pkg/observability"
	"github.com/kabro/accesscore/pkg/orgs"
	"github.com/kabro/accesscore/pkg/storage"
)

const maintenanceSchedule = "*/15 * * * *"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	ctx := context.Background()
	db, err := storage.Open(ctx, cfg.Database.URL, cfg.Database.Pool)
	if err != nil {
		log.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	if err := storage.RunMigrations(ctx, db,
		identity.Migrations(),
		orgs.Migrations(),
		delegation.Migrations(),
	); err != nil {
		log.WithError(err).Error("failed to run migrations")
		os.Exit(1)
	}

	// Audit trail. The database sink is the system of record; write
	// failures are swallowed so decisions keep flowing.
	dbAudit, err := audit.NewDBLogger(db)
	if err != nil {
		log.WithError(err).Error("failed to initialize audit logger")
		os.Exit(1)
	}
	var sink audit.Logger = dbAudit
	if cfg.Audit.ConsoleFallback {
		sink = audit.NewMultiLogger(dbAudit, audit.NewConsoleLogger(os.Stdout))
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}
	auditLog := audit.NewFailSafe(sink, log).WithMetrics(metrics)

	identityStore := identity.NewStore(db)
	orgStore := orgs.NewStore(db)
	delegationStore := delegation.NewStore(db)

	engineOpts := []decision.Option{decision.WithTimeout(cfg.Decision.Timeout)}
	if metrics != nil {
		engineOpts = append(engineOpts, decision.WithMetrics(metrics))
	}
	engine := decision.NewEngine(identityStore, orgStore, delegationStore, auditLog, log, engineOpts...)

	server := api.NewServer(api.Deps{
		Identity:    identity.NewService(identityStore, auditLog),
		Orgs:        orgs.NewService(orgStore, auditLog),
		Delegations: delegation.NewService(delegationStore, engine, auditLog).WithMetrics(metrics),
		Engine:      engine,
		Audit:       dbAudit,
		Log:         log,
		Metrics:     metrics,
	})

	// Background maintenance: retention sweep on its own schedule, plus a
	// periodic pass that expires lapsed delegations and stale invitations.
	sweeper := audit.NewSweeper(dbAudit, cfg.Audit.Retention, log)
	if err := sweeper.Start(); err != nil {
		log.WithError(err).Error("failed to start audit retention sweep")
		os.Exit(1)
	}

	maintenance := cron.New()
	if _, err := maintenance.AddFunc(maintenanceSchedule, func() {
		runMaintenance(db, delegationStore, orgStore, metrics, log)
	}); err != nil {
		log.WithError(err).Error("failed to schedule maintenance")
		os.Exit(1)
	}
	maintenance.Start()

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux(db, metrics),
	}

	shutdown := observability.NewShutdownManager(log, cfg.Server.ShutdownTimeout, apiServer, healthServer)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		sweeper.Stop()
		return nil
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		stopCtx := maintenance.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
		}
		return nil
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return auditLog.Close()
	})

	go func() {
		log.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("health server failed")
		}
	}()

	go func() {
		log.WithField("addr", apiServer.Addr).Info("access core API listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("API server failed")
			os.Exit(1)
		}
	}()

	if err := shutdown.WaitForShutdown(); err != nil {
		log.WithError(err).Error("shutdown failed")
		os.Exit(1)
	}
}

func healthMux(db *sql.DB, metrics *observability.Metrics) http.Handler {
	hc := observability.NewHealthChecker(db)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", hc.Liveness)
	mux.HandleFunc("/readyz", hc.Readiness)
	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}
	return mux
}

func runMaintenance(db *sql.DB, delegations *delegation.Store, orgStore *orgs.Store, metrics *observability.Metrics, log *observability.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if expired, err := delegations.MarkExpired(ctx, time.Now().UTC()); err != nil {
		log.WithError(err).Warn("failed to expire delegations")
	} else if expired > 0 {
		log.WithField("expired", expired).Info("marked lapsed delegations expired")
	}

	if removed, err := orgStore.CleanupExpiredInvitations(ctx); err != nil {
		log.WithError(err).Warn("failed to clean up expired invitations")
	} else if removed > 0 {
		log.WithField("removed", removed).Info("cleaned up expired invitations")
	}

	if metrics != nil {
		metrics.CollectDBStats(db)
	}
}
