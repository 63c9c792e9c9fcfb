package provisioning

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/erp/egnyte-provisioner/internal/domain/project"
	"github.com/erp/egnyte-provisioner/internal/domain/shared"
	"github.com/erp/egnyte-provisioner/internal/infrastructure/logger"
	"github.com/erp/egnyte-provisioner/internal/infrastructure/persistence"
	"github.com/erp/egnyte-provisioner/internal/infrastructure/scheduler"
)

// ProjectSource lists provisionable projects from the ERP.
type ProjectSource interface {
	ListProjects(ctx context.Context) ([]project.Project, error)
	Logoff(ctx context.Context) error
}

// Summary aggregates one provisioning run.
type Summary struct {
	RunID          uuid.UUID
	StartedAt      time.Time
	CompletedAt    time.Time
	Listed         int
	Eligible       int
	Copied         int
	Renamed        int
	SkippedExists  int
	SkippedUnknown int
	MissingMaster  int
	Failed         int
	DryRun         int
	Results        []Result
}

// Runner drives a full provisioning run: list projects, filter the eligible
// ones, fan them out to the orchestrator through a worker pool, and record
// every outcome in the ledger. A run is a batch; the runner exists per
// invocation and carries no state between runs.
type Runner struct {
	orchestrator *Orchestrator
	source       ProjectSource
	ledger       Ledger
	poolConfig   scheduler.PoolConfig
	logger       *zap.Logger
	tracer       trace.Tracer
}

// NewRunner creates a run driver.
func NewRunner(orch *Orchestrator, source ProjectSource, ledger Ledger, poolCfg scheduler.PoolConfig, logger *zap.Logger) *Runner {
	if ledger == nil {
		ledger = NoopLedger{}
	}
	return &Runner{
		orchestrator: orch,
		source:       source,
		ledger:       ledger,
		poolConfig:   poolCfg,
		logger:       logger.Named("runner"),
		tracer:       otel.Tracer("provisioning"),
	}
}

// Run executes one provisioning batch. It returns the summary of whatever
// work completed, together with an error when the run aborted early. Only
// the inability to obtain any usable token aborts a run; individual project
// failures are recorded and do not stop the batch.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	runID := uuid.New()
	summary := Summary{RunID: runID, StartedAt: time.Now()}

	ctx, span := r.tracer.Start(ctx, "provisioning.run",
		trace.WithAttributes(attribute.String("run.id", runID.String())))
	defer span.End()

	// Carry the run ID in the context so downstream layers (the GORM
	// log adapter in particular) can tag their output with it.
	ctx, log := logger.WithRunID(ctx, r.logger, runID.String())
	log.Info("Provisioning run starting")

	defer func() {
		// Session teardown is best effort; an expired ERP session ages out
		// server-side anyway.
		logoffCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		if err := r.source.Logoff(logoffCtx); err != nil {
			log.Warn("ERP logoff failed", zap.Error(err))
		}
	}()

	projects, err := r.source.ListProjects(ctx)
	if err != nil {
		summary.CompletedAt = time.Now()
		return summary, fmt.Errorf("listing projects: %w", err)
	}
	summary.Listed = len(projects)

	eligible := make([]project.Project, 0, len(projects))
	for _, p := range projects {
		if p.Eligible() {
			eligible = append(eligible, p)
		}
	}
	summary.Eligible = len(eligible)
	log.Info("Projects listed",
		zap.Int("total", summary.Listed),
		zap.Int("eligible", summary.Eligible),
	)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	exec := &runExecutor{runner: r, runID: runID, cancel: cancelRun, log: log}
	pool, err := scheduler.NewPool(r.poolConfig, exec, r.logger)
	if err != nil {
		summary.CompletedAt = time.Now()
		return summary, err
	}
	if err := pool.Start(runCtx); err != nil {
		summary.CompletedAt = time.Now()
		return summary, err
	}

	for _, p := range eligible {
		if err := pool.Submit(runCtx, p); err != nil {
			// The run context died: either the caller cancelled or a worker
			// hit an unrecoverable auth failure. Stop feeding the pool.
			log.Warn("Stopping submission", zap.Error(err))
			break
		}
	}

	// Drain against the parent context so queued work finishes even when
	// the run context was cancelled by an abort.
	if err := pool.Drain(ctx); err != nil {
		log.Warn("Pool drain interrupted", zap.Error(err))
	}

	exec.mu.Lock()
	summary.Results = exec.results
	abortErr := exec.abortErr
	exec.mu.Unlock()

	for _, res := range summary.Results {
		switch res.Outcome {
		case OutcomeCopied:
			summary.Copied++
		case OutcomeRenamed:
			summary.Renamed++
		case OutcomeSkippedExists:
			summary.SkippedExists++
		case OutcomeSkippedUnknown:
			summary.SkippedUnknown++
		case OutcomeMissingMaster:
			summary.MissingMaster++
		case OutcomeDryRun:
			summary.DryRun++
		case OutcomeFailed:
			summary.Failed++
		}
	}
	summary.CompletedAt = time.Now()

	log.Info("Provisioning run finished",
		zap.Int("copied", summary.Copied),
		zap.Int("renamed", summary.Renamed),
		zap.Int("skipped_exists", summary.SkippedExists),
		zap.Int("skipped_unknown", summary.SkippedUnknown),
		zap.Int("missing_master", summary.MissingMaster),
		zap.Int("failed", summary.Failed),
		zap.Int("dry_run", summary.DryRun),
		zap.Duration("elapsed", summary.CompletedAt.Sub(summary.StartedAt)),
	)

	if abortErr != nil {
		return summary, abortErr
	}
	return summary, nil
}

// runExecutor adapts the runner to the worker pool. It is shared across
// workers and guards its result slice with a mutex.
type runExecutor struct {
	runner *Runner
	runID  uuid.UUID
	cancel context.CancelFunc
	log    *zap.Logger

	mu       sync.Mutex
	results  []Result
	abortErr error
}

// Execute implements scheduler.Executor.
func (e *runExecutor) Execute(ctx context.Context, p project.Project) {
	ctx, log := logger.WithProjectID(ctx, e.log, p.ID)

	// A project may have been renamed in the ERP since it was last
	// provisioned. If the ledger remembers a different leaf name under the
	// same parent and that folder still exists, move it before the regular
	// existence probe. A prior path under a different parent is stale
	// history (a department change, a series record); renaming there would
	// strand the folder, so the normal provisioning path handles it.
	if !p.AddToExistingSeries && !p.MasterProject {
		if prior, err := e.runner.ledger.LastFolderPath(ctx, p.ID); err == nil &&
			prior != "" && prior != p.FolderPath() &&
			path.Dir(prior) == path.Dir(p.FolderPath()) {
			res := e.runner.orchestrator.Rename(ctx, p, prior)
			// Only report decisive rename outcomes; a skip just means the
			// old folder is gone and the normal path takes over.
			if res.Outcome != OutcomeSkippedUnknown {
				e.record(ctx, res)
			}
			if e.checkAbort(log, res.Err) {
				return
			}
		}
	}

	res := e.runner.orchestrator.Provision(ctx, p)
	e.record(ctx, res)
	e.checkAbort(log, res.Err)
}

// record persists and collects one result. The context carries the logger
// enriched with the run and project IDs.
func (e *runExecutor) record(ctx context.Context, res Result) {
	log := logger.FromContext(ctx)
	errMsg := ""
	if res.Err != nil {
		errMsg = res.Err.Error()
	}

	rec := persistence.ProvisionRecord{
		RunID:      e.runID.String(),
		ProjectID:  res.ProjectID,
		FolderPath: res.FolderPath,
		Template:   res.Template,
		Outcome:    string(res.Outcome),
		Error:      errMsg,
	}
	if err := e.runner.ledger.Append(ctx, rec); err != nil {
		log.Warn("Failed to append ledger record", zap.Error(err))
	}

	if res.Err != nil {
		log.Error("Project provisioning failed",
			zap.String("outcome", string(res.Outcome)),
			zap.Error(res.Err),
		)
	}

	e.mu.Lock()
	e.results = append(e.results, res)
	e.mu.Unlock()
}

// checkAbort cancels the run when the error means no token can be obtained.
// Reports whether the run is aborting.
func (e *runExecutor) checkAbort(log *zap.Logger, err error) bool {
	if err == nil || !errors.Is(err, shared.ErrAuthUnavailable) {
		e.mu.Lock()
		aborting := e.abortErr != nil
		e.mu.Unlock()
		return aborting
	}

	e.mu.Lock()
	if e.abortErr == nil {
		e.abortErr = fmt.Errorf("aborting run: %w", err)
	}
	e.mu.Unlock()

	log.Error("Token acquisition is unavailable, aborting remaining work", zap.Error(err))
	e.cancel()
	return true
}
