package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/erp/egnyte-provisioner/internal/domain/shared"
)

// ProvisionRecord is one ledger row: what happened to one project during
// one provisioning run.
type ProvisionRecord struct {
	ID         uint   `gorm:"primaryKey"`
	RunID      string `gorm:"size:36;index"`
	ProjectID  string `gorm:"size:64;index"`
	FolderPath string `gorm:"size:512"`
	Template   string `gorm:"size:128"`
	Outcome    string `gorm:"size:32"`
	Error      string `gorm:"type:text"`
	CreatedAt  time.Time
}

// TableName overrides the GORM table name
func (ProvisionRecord) TableName() string {
	return "provision_records"
}

// RunSummaryRow aggregates a run's outcomes for the status endpoint.
type RunSummaryRow struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Total     int       `json:"total"`
	Copied    int       `json:"copied"`
	Renamed   int       `json:"renamed"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
}

// RunLedger records provisioning outcomes. The ledger is advisory: folder
// existence in Egnyte is always the source of truth, the ledger only feeds
// reporting and rename detection.
type RunLedger struct {
	db *gorm.DB
}

// NewRunLedger creates the ledger and migrates its schema
func NewRunLedger(db *gorm.DB) (*RunLedger, error) {
	if err := db.AutoMigrate(&ProvisionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate ledger schema: %w", err)
	}
	return &RunLedger{db: db}, nil
}

// Append stores one outcome row
func (l *RunLedger) Append(ctx context.Context, rec ProvisionRecord) error {
	if err := l.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to append ledger record: %w", err)
	}
	return nil
}

// LastFolderPath returns the most recent folder path recorded for a
// project, or shared.ErrNotFound if the project has never been placed.
func (l *RunLedger) LastFolderPath(ctx context.Context, projectID string) (string, error) {
	var rec ProvisionRecord
	err := l.db.WithContext(ctx).
		Where("project_id = ? AND folder_path <> ''", projectID).
		Order("id DESC").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", shared.ErrNotFound
		}
		return "", fmt.Errorf("failed to query ledger: %w", err)
	}
	return rec.FolderPath, nil
}

// RecordsForRun returns all rows of one run in insertion order
func (l *RunLedger) RecordsForRun(ctx context.Context, runID string) ([]ProvisionRecord, error) {
	var recs []ProvisionRecord
	err := l.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	return recs, nil
}

// RecentRuns returns per-run outcome counts for the most recent runs
func (l *RunLedger) RecentRuns(ctx context.Context, limit int) ([]RunSummaryRow, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []RunSummaryRow
	err := l.db.WithContext(ctx).
		Model(&ProvisionRecord{}).
		Select(`run_id,
			MIN(created_at) AS started_at,
			COUNT(*) AS total,
			SUM(CASE WHEN outcome = 'COPIED' THEN 1 ELSE 0 END) AS copied,
			SUM(CASE WHEN outcome = 'RENAMED' THEN 1 ELSE 0 END) AS renamed,
			SUM(CASE WHEN outcome LIKE 'SKIPPED%' THEN 1 ELSE 0 END) AS skipped,
			SUM(CASE WHEN outcome IN ('FAILED', 'MISSING_MASTER') THEN 1 ELSE 0 END) AS failed`).
		Group("run_id").
		Order("started_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate runs: %w", err)
	}
	return rows, nil
}
