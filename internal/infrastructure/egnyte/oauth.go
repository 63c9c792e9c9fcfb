package egnyte

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

// OAuthConfig holds the resource-owner-password-grant credentials for the
// Egnyte OAuth endpoint.
type OAuthConfig struct {
	// TokenURL is the OAuth token endpoint, e.g. "https://acme.egnyte.com/puboauth/token".
	TokenURL     string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	// TimeoutSeconds bounds the token request.
	TimeoutSeconds int
}

// TokenSource mints Egnyte bearer tokens via the password grant. It
// implements tokenstore.Source; rate limiting and caching are handled by
// the token manager.
type TokenSource struct {
	config     OAuthConfig
	httpClient *http.Client
}

// NewTokenSource creates an Egnyte token source.
func NewTokenSource(cfg OAuthConfig) *TokenSource {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}
	return &TokenSource{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// Service implements tokenstore.Source.
func (s *TokenSource) Service() string {
	return "egnyte"
}

// Mint implements tokenstore.Source.
func (s *TokenSource) Mint(ctx context.Context) (tokenstore.Token, error) {
	form := url.Values{
		"client_id":     {s.config.ClientID},
		"client_secret": {s.config.ClientSecret},
		"username":      {s.config.Username},
		"password":      {s.config.Password},
		"grant_type":    {"password"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return tokenstore.Token{}, fmt.Errorf("egnyte: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return tokenstore.Token{}, fmt.Errorf("egnyte: token request failed: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		return tokenstore.Token{}, &tokenstore.RateLimitError{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return tokenstore.Token{}, fmt.Errorf("egnyte: token endpoint returned HTTP %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&payload); err != nil {
		return tokenstore.Token{}, fmt.Errorf("egnyte: failed to parse token response: %w", err)
	}
	if payload.AccessToken == "" {
		return tokenstore.Token{}, fmt.Errorf("egnyte: token response carried no access_token")
	}

	return tokenstore.Token{AccessToken: payload.AccessToken}, nil
}

// parseRetryAfter reads a Retry-After header in seconds. A missing or
// malformed header returns zero and the manager applies its default.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

var _ tokenstore.Source = (*TokenSource)(nil)
