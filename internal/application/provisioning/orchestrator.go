package provisioning

import (
	"context"
	"fmt"
	"path"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/erp/egnyte-provisioner/internal/domain/folder"
	"github.com/erp/egnyte-provisioner/internal/domain/project"
	"github.com/erp/egnyte-provisioner/internal/domain/shared"
	"github.com/erp/egnyte-provisioner/internal/domain/template"
	"github.com/erp/egnyte-provisioner/internal/infrastructure/logger"
)

// Outcome classifies what happened to one project.
type Outcome string

const (
	// OutcomeCopied means a template was copied into a new folder.
	OutcomeCopied Outcome = "COPIED"
	// OutcomeSkippedExists means the folder was already in place.
	OutcomeSkippedExists Outcome = "SKIPPED_EXISTS"
	// OutcomeSkippedUnknown means existence could not be determined, so
	// nothing was written. The next run retries the project.
	OutcomeSkippedUnknown Outcome = "SKIPPED_UNKNOWN"
	// OutcomeMissingMaster means a series project had no master folder to
	// nest under.
	OutcomeMissingMaster Outcome = "MISSING_MASTER"
	// OutcomeRenamed means an existing folder was moved to the project's
	// current name.
	OutcomeRenamed Outcome = "RENAMED"
	// OutcomeDryRun means the folder would have been created but dry-run
	// mode suppressed the copy.
	OutcomeDryRun Outcome = "DRY_RUN"
	// OutcomeFailed means the provisioning attempt errored.
	OutcomeFailed Outcome = "FAILED"
)

// Result is the outcome of provisioning one project.
type Result struct {
	ProjectID  string
	FolderPath string
	Template   string
	Outcome    Outcome
	Err        error
}

// OrchestratorConfig tunes orchestrator behavior.
type OrchestratorConfig struct {
	// TemplateRoot is the folder holding the template folders, relative to
	// the shared root.
	TemplateRoot string
	// DryRun logs decisions without copying or moving folders.
	DryRun bool
}

// Orchestrator decides and executes the folder work for a single project:
// which template applies, where the folder goes, and whether anything needs
// to be copied at all. Every write is guarded by an existence probe so that
// re-running a batch never duplicates folders.
type Orchestrator struct {
	config  OrchestratorConfig
	rules   *template.Table
	folders folder.Repository
	logger  *zap.Logger
	tracer  trace.Tracer
}

// NewOrchestrator creates a provisioning orchestrator.
func NewOrchestrator(cfg OrchestratorConfig, rules *template.Table, folders folder.Repository, logger *zap.Logger) *Orchestrator {
	if cfg.TemplateRoot == "" {
		cfg.TemplateRoot = "Templates"
	}
	return &Orchestrator{
		config:  cfg,
		rules:   rules,
		folders: folders,
		logger:  logger.Named("orchestrator"),
		tracer:  otel.Tracer("provisioning"),
	}
}

// Provision ensures the project's folder exists, creating it from the
// selected template when absent. It never deletes or overwrites anything:
// when in doubt (unknown existence) it skips and leaves the project for the
// next run.
func (o *Orchestrator) Provision(ctx context.Context, p project.Project) Result {
	ctx, span := o.tracer.Start(ctx, "provisioning.provision",
		trace.WithAttributes(attribute.String("project.id", p.ID)))
	defer span.End()

	var res Result
	if p.AddToExistingSeries {
		res = o.provisionSeries(ctx, p)
	} else {
		res = o.provisionStandalone(ctx, p)
	}

	span.SetAttributes(
		attribute.String("provision.outcome", string(res.Outcome)),
		attribute.String("provision.folder_path", res.FolderPath),
	)
	if res.Err != nil {
		span.SetStatus(codes.Error, res.Err.Error())
		span.RecordError(res.Err)
	}
	return res
}

// provisionStandalone handles regular and master projects, which both live
// directly under their department folder.
func (o *Orchestrator) provisionStandalone(ctx context.Context, p project.Project) Result {
	dest := p.FolderPath()
	return o.ensureFolder(ctx, p, dest)
}

// provisionSeries handles projects nested under a master project folder.
// The master folder must already exist; series provisioning never creates
// it implicitly.
func (o *Orchestrator) provisionSeries(ctx context.Context, p project.Project) Result {
	log := logger.WithTraceContext(ctx, o.logger.With(zap.String("project_id", p.ID)))

	masterPath := p.MasterFolderPath()
	existence, err := o.folders.Exists(ctx, masterPath)
	if err != nil {
		return Result{ProjectID: p.ID, FolderPath: masterPath, Outcome: OutcomeFailed,
			Err: fmt.Errorf("checking master folder %q: %w", masterPath, err)}
	}

	switch existence {
	case folder.ExistenceAbsent:
		log.Error("Master project folder is missing",
			zap.String("master_path", masterPath),
			zap.String("master_project", p.MasterProjectName),
		)
		return Result{ProjectID: p.ID, FolderPath: masterPath,
			Outcome: OutcomeMissingMaster, Err: shared.ErrMissingMasterFolder}
	case folder.ExistenceUnknown:
		log.Warn("Master folder existence is unknown, deferring project",
			zap.String("master_path", masterPath),
		)
		return Result{ProjectID: p.ID, FolderPath: masterPath, Outcome: OutcomeSkippedUnknown}
	}

	return o.ensureFolder(ctx, p, p.SeriesFolderPath())
}

// ensureFolder probes dest and copies the selected template when absent.
func (o *Orchestrator) ensureFolder(ctx context.Context, p project.Project, dest string) Result {
	log := logger.WithTraceContext(ctx, o.logger.With(
		zap.String("project_id", p.ID),
		zap.String("folder_path", dest),
	))

	existence, err := o.folders.Exists(ctx, dest)
	if err != nil {
		return Result{ProjectID: p.ID, FolderPath: dest, Outcome: OutcomeFailed,
			Err: fmt.Errorf("checking folder %q: %w", dest, err)}
	}

	switch existence {
	case folder.ExistenceExists:
		log.Debug("Folder already exists, skipping")
		return Result{ProjectID: p.ID, FolderPath: dest, Outcome: OutcomeSkippedExists}
	case folder.ExistenceUnknown:
		log.Warn("Folder existence is unknown, deferring project")
		return Result{ProjectID: p.ID, FolderPath: dest, Outcome: OutcomeSkippedUnknown}
	}

	tmpl := o.rules.Select(template.AttributesFrom(&p))
	src := path.Join(o.config.TemplateRoot, tmpl)

	if o.config.DryRun {
		log.Info("Dry run: would copy template",
			zap.String("template", tmpl),
			zap.String("source", src),
		)
		return Result{ProjectID: p.ID, FolderPath: dest, Template: tmpl, Outcome: OutcomeDryRun}
	}

	if err := o.folders.Copy(ctx, src, dest); err != nil {
		return Result{ProjectID: p.ID, FolderPath: dest, Template: tmpl, Outcome: OutcomeFailed,
			Err: fmt.Errorf("copying template %q to %q: %w", tmpl, dest, err)}
	}

	log.Info("Folder provisioned", zap.String("template", tmpl))
	return Result{ProjectID: p.ID, FolderPath: dest, Template: tmpl, Outcome: OutcomeCopied}
}

// Rename moves a previously provisioned folder to the project's current
// name. It is a no-op (skip) when the old folder cannot be confirmed to
// exist; the regular provisioning path then decides what to do with the
// new location.
func (o *Orchestrator) Rename(ctx context.Context, p project.Project, previousPath string) Result {
	ctx, span := o.tracer.Start(ctx, "provisioning.rename",
		trace.WithAttributes(
			attribute.String("project.id", p.ID),
			attribute.String("rename.previous_path", previousPath),
		))
	defer span.End()

	log := logger.WithTraceContext(ctx, o.logger.With(
		zap.String("project_id", p.ID),
		zap.String("previous_path", previousPath),
	))

	existence, err := o.folders.Exists(ctx, previousPath)
	if err != nil {
		return Result{ProjectID: p.ID, FolderPath: previousPath, Outcome: OutcomeFailed,
			Err: fmt.Errorf("checking folder %q: %w", previousPath, err)}
	}
	if existence != folder.ExistenceExists {
		log.Debug("Previous folder not confirmed, skipping rename")
		return Result{ProjectID: p.ID, FolderPath: previousPath, Outcome: OutcomeSkippedUnknown}
	}

	// A rename only changes the leaf, so the folder ends up next to
	// wherever it was before, not necessarily at p.FolderPath().
	newName := p.FolderName()
	renamedPath := path.Join(path.Dir(previousPath), newName)
	if o.config.DryRun {
		log.Info("Dry run: would rename folder", zap.String("new_name", newName))
		return Result{ProjectID: p.ID, FolderPath: renamedPath, Outcome: OutcomeDryRun}
	}

	if err := o.folders.Move(ctx, previousPath, newName); err != nil {
		return Result{ProjectID: p.ID, FolderPath: previousPath, Outcome: OutcomeFailed,
			Err: fmt.Errorf("renaming %q to %q: %w", previousPath, newName, err)}
	}

	log.Info("Folder renamed", zap.String("new_name", newName))
	return Result{ProjectID: p.ID, FolderPath: renamedPath, Outcome: OutcomeRenamed}
}
