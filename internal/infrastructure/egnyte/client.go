// Package egnyte implements the storage-side folder repository against the
// Egnyte public filesystem API.
package egnyte

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erp/egnyte-provisioner/internal/domain/folder"
	"github.com/erp/egnyte-provisioner/internal/infrastructure/tokenstore"
)

const (
	// maxResponseSize limits response bodies to prevent memory exhaustion.
	maxResponseSize = 1 * 1024 * 1024 // 1MB

	// defaultCopyTimeout is the per-attempt deadline for a copy.
	defaultCopyTimeout = 30 * time.Second
	// copyAttempts bounds timeout retries for a single copy; non-timeout
	// failures are never retried.
	copyAttempts = 2
)

// Config holds Egnyte client configuration.
type Config struct {
	// APIBaseURL is the tenant API root, e.g. "https://acme.egnyte.com/pubapi/v1".
	APIBaseURL string
	// SharedRoot is the folder all project folders live under, relative to
	// the "Shared" drive, e.g. "Projects".
	SharedRoot string
	// CopyTimeout overrides the per-attempt copy deadline.
	CopyTimeout time.Duration
	// TimeoutSeconds bounds every other request.
	TimeoutSeconds int
}

// Client talks to the Egnyte filesystem API. It owns the retry contract
// for folder operations: timeouts on copy are retried up to the attempt
// bound, HTTP errors fail immediately, and ambiguous existence responses
// are reported as unknown rather than guessed at.
type Client struct {
	config     Config
	tokens     *tokenstore.Manager
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an Egnyte filesystem client.
func NewClient(cfg Config, tokens *tokenstore.Manager, logger *zap.Logger) *Client {
	if cfg.CopyTimeout <= 0 {
		cfg.CopyTimeout = defaultCopyTimeout
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	return &Client{
		config: cfg,
		tokens: tokens,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: logger.Named("egnyte"),
	}
}

// sharedPath resolves a project-relative path to the full filesystem path
// under the Shared drive.
func (c *Client) sharedPath(relPath string) string {
	return path.Join("/Shared", c.config.SharedRoot, relPath)
}

// ---------------------------------------------------------------------------
// Folder Operations
// ---------------------------------------------------------------------------

// Exists checks whether a folder exists under the shared root.
// 200 means it exists, 404 means it does not; anything else is reported as
// ExistenceUnknown so the caller can decline to act.
func (c *Client) Exists(ctx context.Context, relPath string) (folder.Existence, error) {
	token, err := c.tokens.Acquire(ctx)
	if err != nil {
		return folder.ExistenceUnknown, err
	}

	reqURL := c.config.APIBaseURL + "/fs" + escapePath(c.sharedPath(relPath))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return folder.ExistenceUnknown, fmt.Errorf("egnyte: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return folder.ExistenceUnknown, fmt.Errorf("egnyte: existence check failed: %w", err)
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return folder.ExistenceExists, nil
	case http.StatusNotFound:
		return folder.ExistenceAbsent, nil
	default:
		c.logger.Warn("Ambiguous existence response",
			zap.String("path", relPath),
			zap.Int("status", resp.StatusCode),
		)
		return folder.ExistenceUnknown, nil
	}
}

// Copy copies a template folder to a destination under the shared root.
// Each attempt gets its own deadline; a timeout is retried once, while any
// HTTP error is surfaced immediately without retry.
func (c *Client) Copy(ctx context.Context, sourcePath, destinationPath string) error {
	body := map[string]string{
		"action":      "copy",
		"destination": c.sharedPath(destinationPath),
		"permissions": "keep_original",
	}

	var lastErr error
	for attempt := 1; attempt <= copyAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.config.CopyTimeout)
		err := c.folderAction(attemptCtx, c.sharedPath(sourcePath), body)
		cancel()

		if err == nil {
			return nil
		}
		if !isTimeout(err) {
			return err
		}

		lastErr = err
		c.logger.Warn("Copy attempt timed out",
			zap.String("source", sourcePath),
			zap.String("destination", destinationPath),
			zap.Int("attempt", attempt),
		)
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrCopyTimeout, copyAttempts, lastErr)
}

// Move renames a folder in place. Success codes are 200 and 201.
func (c *Client) Move(ctx context.Context, relPath, destinationName string) error {
	destination := path.Join(path.Dir(c.sharedPath(relPath)), destinationName)
	body := map[string]string{
		"action":      "move",
		"destination": destination,
	}
	return c.folderAction(ctx, c.sharedPath(relPath), body)
}

// folderAction POSTs a filesystem action (copy/move) to a path.
func (c *Client) folderAction(ctx context.Context, fullPath string, body map[string]string) error {
	token, err := c.tokens.Acquire(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("egnyte: failed to marshal request: %w", err)
	}

	reqURL := c.config.APIBaseURL + "/fs" + escapePath(fullPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("egnyte: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("egnyte: %s failed: %w", body["action"], err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: %s returned HTTP %d", ErrRequestFailed, body["action"], resp.StatusCode)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// escapePath percent-encodes each path segment while keeping separators.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// isTimeout reports whether an error is a deadline/timeout failure rather
// than a definitive HTTP response.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxResponseSize))
	_ = body.Close()
}

// Ensure Client implements the folder repository contract.
var _ folder.Repository = (*Client)(nil)
