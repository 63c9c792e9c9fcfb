package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/erp/egnyte-provisioner/internal/infrastructure/persistence"
	"github.com/erp/egnyte-provisioner/internal/interfaces/http/dto"
)

// RunReader is the ledger view the status API needs.
type RunReader interface {
	RecentRuns(ctx context.Context, limit int) ([]persistence.RunSummaryRow, error)
	RecordsForRun(ctx context.Context, runID string) ([]persistence.ProvisionRecord, error)
}

// NoopRunReader serves empty history when the ledger is disabled.
type NoopRunReader struct{}

func (NoopRunReader) RecentRuns(ctx context.Context, limit int) ([]persistence.RunSummaryRow, error) {
	return nil, nil
}

func (NoopRunReader) RecordsForRun(ctx context.Context, runID string) ([]persistence.ProvisionRecord, error) {
	return nil, nil
}

// RunsHandler serves provisioning run history from the ledger.
type RunsHandler struct {
	BaseHandler
	ledger RunReader
}

// NewRunsHandler creates a new RunsHandler
func NewRunsHandler(ledger RunReader) *RunsHandler {
	return &RunsHandler{ledger: ledger}
}

// RunRecordResponse is one ledger row in API form.
type RunRecordResponse struct {
	ProjectID  string    `json:"project_id"`
	FolderPath string    `json:"folder_path"`
	Template   string    `json:"template,omitempty"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// RunDetailResponse is a run with all its project outcomes.
type RunDetailResponse struct {
	RunID   string              `json:"run_id"`
	Records []RunRecordResponse `json:"records"`
}

// ListRuns returns recent run summaries, newest first.
func (h *RunsHandler) ListRuns(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := h.ledger.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		h.InternalError(c, "failed to query run history")
		return
	}
	h.Success(c, runs)
}

// GetRun returns every recorded outcome of one run.
func (h *RunsHandler) GetRun(c *gin.Context) {
	var req dto.RunIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "run ID must be a UUID")
		return
	}

	records, err := h.ledger.RecordsForRun(c.Request.Context(), req.RunID)
	if err != nil {
		h.InternalError(c, "failed to query run records")
		return
	}
	if len(records) == 0 {
		h.NotFound(c, "run not found")
		return
	}

	detail := RunDetailResponse{
		RunID:   req.RunID,
		Records: make([]RunRecordResponse, 0, len(records)),
	}
	for _, rec := range records {
		detail.Records = append(detail.Records, RunRecordResponse{
			ProjectID:  rec.ProjectID,
			FolderPath: rec.FolderPath,
			Template:   rec.Template,
			Outcome:    rec.Outcome,
			Error:      rec.Error,
			CreatedAt:  rec.CreatedAt,
		})
	}
	h.Success(c, detail)
}

// RegisterRoutes registers the run history routes
func (h *RunsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	runs := rg.Group("/runs")
	{
		runs.GET("", h.ListRuns)
		runs.GET("/:id", h.GetRun)
	}
}
