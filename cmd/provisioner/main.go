package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/erp/egnyte-provisioner/internal/application/provisioning"
	"github.com/erp/egnyte-provisioner/internal/infrastructure/config"
	"github.com/erp/egnyte-provisioner/internal/infrastructure/egnyte"
	"github.com/erp/egnyte-provisioner/internal/infrastructure/erp"
	"github.com/erp/egnyte-provisioner/internal/infrastructure/logger"
	"github.com/erp/egnyte-provisioner/internal/infrastructure/persistence"
	"github.com/erp/egnyte-provisioner/internal/infrastructure/report"
	"github.com/erp/egnyte-provisioner/internal/infrastructure/ruleimport"
	"github.com/erp/egnyte-provisioner/internal/infrastructure/scheduler"
	"github.com/erp/egnyte-provisioner/internal/infrastructure/telemetry"
	"github.com/erp/egnyte-provisioner/internal/infrastructure/tokenstore"
	httpserver "github.com/erp/egnyte-provisioner/internal/interfaces/http"
	"github.com/erp/egnyte-provisioner/internal/interfaces/http/handler"
)

func main() {
	// All resources are released through defers in run; exiting from main
	// keeps those defers (telemetry flush, ledger close, server shutdown)
	// ahead of the process exit.
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Egnyte provisioner",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.Bool("dry_run", cfg.Provision.DryRun),
	)

	// Cancel the run on SIGINT/SIGTERM; in-flight folder work still drains.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Error("Failed to initialize telemetry", zap.Error(err))
		return err
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	// Load the template decision table
	rules, err := ruleimport.Load(cfg.Rules.Path)
	if err != nil {
		log.Error("Failed to load template rules",
			zap.String("path", cfg.Rules.Path),
			zap.Error(err),
		)
		return err
	}
	log.Info("Template rules loaded",
		zap.String("path", cfg.Rules.Path),
		zap.Int("rules", rules.Len()),
	)

	// Token cache shared by both services
	tokenStore, err := tokenstore.NewStore(tokenstore.StoreConfig{
		Backend: tokenstore.Backend(cfg.TokenCache.Backend),
		Dir:     cfg.TokenCache.Dir,
		Redis: tokenstore.RedisConfig{
			Host:     cfg.TokenCache.Redis.Host,
			Port:     cfg.TokenCache.Redis.Port,
			Password: cfg.TokenCache.Redis.Password,
			DB:       cfg.TokenCache.Redis.DB,
		},
	}, log)
	if err != nil {
		log.Error("Failed to initialize token cache", zap.Error(err))
		return err
	}

	erpTokens := tokenstore.NewManager(erp.NewIdentitySource(erp.IdentityConfig{
		TokenURL:     cfg.ERP.TokenURL,
		ClientID:     cfg.ERP.ClientID,
		ClientSecret: cfg.ERP.ClientSecret,
		Username:     cfg.ERP.Username,
		Password:     cfg.ERP.Password,
	}), tokenStore, log)

	egnyteTokens := tokenstore.NewManager(egnyte.NewTokenSource(egnyte.OAuthConfig{
		TokenURL:     cfg.Egnyte.TokenURL,
		ClientID:     cfg.Egnyte.ClientID,
		ClientSecret: cfg.Egnyte.ClientSecret,
		Username:     cfg.Egnyte.Username,
		Password:     cfg.Egnyte.Password,
	}), tokenStore, log)

	// API clients
	erpClient := erp.NewClient(erp.Config{
		BaseURL:        cfg.ERP.BaseURL,
		TimeoutSeconds: cfg.ERP.TimeoutSeconds,
	}, erpTokens, log)

	egnyteClient := egnyte.NewClient(egnyte.Config{
		APIBaseURL:     cfg.Egnyte.APIBaseURL,
		SharedRoot:     cfg.Egnyte.SharedRoot,
		CopyTimeout:    cfg.Egnyte.CopyTimeout,
		TimeoutSeconds: cfg.Egnyte.TimeoutSeconds,
	}, egnyteTokens, log)

	// Run ledger
	var ledger provisioning.Ledger
	var runReader handler.RunReader = handler.NoopRunReader{}
	var db *persistence.Database
	if cfg.Ledger.Enabled {
		db, err = persistence.NewDatabase(&cfg.Ledger, log, persistence.Options{
			Tracing:  cfg.Telemetry.Enabled,
			LogLevel: logger.MapGormLogLevel(cfg.Log.Level),
		})
		if err != nil {
			log.Error("Failed to open ledger database", zap.Error(err))
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing ledger database", zap.Error(err))
			}
		}()

		runLedger, err := persistence.NewRunLedger(db.DB)
		if err != nil {
			log.Error("Failed to migrate ledger schema", zap.Error(err))
			return err
		}
		ledger = runLedger
		runReader = runLedger
		log.Info("Run ledger enabled", zap.String("driver", cfg.Ledger.Driver))
	}

	// Optional status server
	if cfg.Status.Enabled {
		statusServer := httpserver.NewServer(cfg, runReader, db, log)
		go func() {
			if err := statusServer.Start(); err != nil {
				log.Error("Status server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := statusServer.Shutdown(shutdownCtx); err != nil {
				log.Error("Status server shutdown failed", zap.Error(err))
			}
		}()
	}

	// Provisioning pipeline
	orchestrator := provisioning.NewOrchestrator(provisioning.OrchestratorConfig{
		TemplateRoot: cfg.Egnyte.TemplateRoot,
		DryRun:       cfg.Provision.DryRun,
	}, rules, egnyteClient, log)

	runner := provisioning.NewRunner(orchestrator, erpClient, ledger, scheduler.PoolConfig{
		Workers:    cfg.Provision.Workers,
		QueueSize:  cfg.Provision.QueueSize,
		JobTimeout: cfg.Provision.JobTimeout,
	}, log)

	summary, runErr := runner.Run(ctx)

	if cfg.Provision.ReportDir != "" && len(summary.Results) > 0 {
		if path, err := report.WriteFile(cfg.Provision.ReportDir, summary); err != nil {
			log.Error("Failed to write run report", zap.Error(err))
		} else {
			log.Info("Run report written", zap.String("path", path))
		}
	}

	if runErr != nil {
		log.Error("Provisioning run failed", zap.Error(runErr))
		return runErr
	}
	return nil
}
