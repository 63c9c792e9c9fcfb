// Package erp implements the project data source against the ERP's REST
// API: authentication, the project listing, and session logoff.
package erp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erp/egnyte-provisioner/internal/domain/project"
	"github.com/erp/egnyte-provisioner/internal/infrastructure/tokenstore"
)

// maxResponseSize limits response bodies to prevent memory exhaustion.
const maxResponseSize = 50 * 1024 * 1024 // 50MB; the full project list is large

// Config holds ERP API client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "https://erp.example.com/api".
	BaseURL string
	// TimeoutSeconds bounds every request.
	TimeoutSeconds int
}

// Client fetches normalized project records from the ERP.
type Client struct {
	config     Config
	tokens     *tokenstore.Manager
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an ERP API client.
func NewClient(cfg Config, tokens *tokenstore.Manager, logger *zap.Logger) *Client {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 60
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		config: cfg,
		tokens: tokens,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: logger.Named("erp"),
	}
}

// ListProjects fetches all project records with their attributes expanded
// and normalizes them into typed domain projects.
func (c *Client) ListProjects(ctx context.Context) ([]project.Project, error) {
	token, err := c.tokens.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	reqURL := c.config.BaseURL + "/Project?$expand=Attributes"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("erp: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erp: project listing failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("erp: project listing returned HTTP %d", resp.StatusCode)
	}

	var payload projectListResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("erp: failed to parse project listing: %w", err)
	}

	projects := make([]project.Project, 0, len(payload.Value))
	for _, rec := range payload.Value {
		projects = append(projects, normalize(rec))
	}

	c.logger.Info("Fetched project records", zap.Int("count", len(projects)))
	return projects, nil
}

// Logoff ends the ERP session. Success codes are 200 and 204; a failed
// logoff is surfaced but costs nothing beyond a lingering session.
func (c *Client) Logoff(ctx context.Context) error {
	token, err := c.tokens.Acquire(ctx)
	if err != nil {
		return err
	}

	reqURL := c.config.BaseURL + "/entity/auth/logout"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, nil)
	if err != nil {
		return fmt.Errorf("erp: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("erp: logoff failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("erp: logoff returned HTTP %d", resp.StatusCode)
	}
	return nil
}
