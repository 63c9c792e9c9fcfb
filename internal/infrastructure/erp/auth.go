package erp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/erp/egnyte-provisioner/internal/infrastructure/tokenstore"
)

// IdentityConfig holds the password-grant credentials for the ERP identity
// endpoint.
type IdentityConfig struct {
	// TokenURL is the identity endpoint.
	TokenURL     string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	// TimeoutSeconds bounds the token request.
	TimeoutSeconds int
}

// IdentitySource mints ERP bearer tokens. It implements tokenstore.Source.
type IdentitySource struct {
	config     IdentityConfig
	httpClient *http.Client
}

// NewIdentitySource creates an ERP identity token source.
func NewIdentitySource(cfg IdentityConfig) *IdentitySource {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}
	return &IdentitySource{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// Service implements tokenstore.Source.
func (s *IdentitySource) Service() string {
	return "erp"
}

// Mint implements tokenstore.Source.
func (s *IdentitySource) Mint(ctx context.Context) (tokenstore.Token, error) {
	form := url.Values{
		"client_id":     {s.config.ClientID},
		"client_secret": {s.config.ClientSecret},
		"username":      {s.config.Username},
		"password":      {s.config.Password},
		"grant_type":    {"password"},
		"scope":         {"api"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return tokenstore.Token{}, fmt.Errorf("erp: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return tokenstore.Token{}, fmt.Errorf("erp: token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := time.Duration(0)
		if header := strings.TrimSpace(resp.Header.Get("Retry-After")); header != "" {
			if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return tokenstore.Token{}, &tokenstore.RateLimitError{RetryAfter: retryAfter}
	}
	if resp.StatusCode != http.StatusOK {
		return tokenstore.Token{}, fmt.Errorf("erp: identity endpoint returned HTTP %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return tokenstore.Token{}, fmt.Errorf("erp: failed to parse token response: %w", err)
	}
	if payload.AccessToken == "" {
		return tokenstore.Token{}, fmt.Errorf("erp: token response carried no access_token")
	}

	return tokenstore.Token{AccessToken: payload.AccessToken}, nil
}

var _ tokenstore.Source = (*IdentitySource)(nil)
