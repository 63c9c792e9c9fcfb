package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/erp/egnyte-provisioner/internal/domain/shared"
)

const (
	// defaultPreflightDelay is the fixed pause before every token request,
	// to stay clear of the identity endpoints' rate limits.
	defaultPreflightDelay = 5 * time.Second
	// defaultRetryAfter is used when a 429 response carries no Retry-After
	// header.
	defaultRetryAfter = 60 * time.Second
	// maxMintAttempts bounds the refresh loop, 429 retries included.
	maxMintAttempts = 3
)

// Manager hands out a valid bearer token for one service: a cached token
// is reused while fresh; otherwise a new one is minted, persisted, and
// returned. Acquisition is a critical section, so concurrent workers share
// a single in-flight refresh and a single Retry-After backoff.
type Manager struct {
	source Source
	store  Store
	clock  Clock
	logger *zap.Logger

	preflightDelay time.Duration

	mu sync.Mutex
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock injects a clock, letting tests drive retries without sleeping.
func WithClock(clock Clock) ManagerOption {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithPreflightDelay overrides the fixed pre-request delay.
func WithPreflightDelay(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.preflightDelay = d
	}
}

// NewManager creates a token manager for one service.
func NewManager(source Source, store Store, logger *zap.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		source:         source,
		store:          store,
		clock:          NewRealClock(),
		logger:         logger.Named("tokenstore").With(zap.String("service", source.Service())),
		preflightDelay: defaultPreflightDelay,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Acquire returns a valid token, minting one if the cache is empty or
// stale. On repeated rate limiting the refresh fails with
// shared.ErrAuthUnavailable; callers must treat downstream operations
// against the service as impossible.
func (m *Manager) Acquire(ctx context.Context) (Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cached, err := m.store.Load(ctx, m.source.Service())
	if err == nil && cached.FreshAt(m.clock.Now()) {
		m.logger.Debug("Reusing cached token",
			zap.Time("issued_at", cached.IssuedAt),
		)
		return cached, nil
	}
	if err != nil && !errors.Is(err, ErrTokenNotFound) {
		m.logger.Warn("Token cache read failed, minting a new token", zap.Error(err))
	}

	if err := m.clock.Sleep(ctx, m.preflightDelay); err != nil {
		return Token{}, err
	}

	return m.refresh(ctx)
}

// refresh runs the bounded mint loop. The attempt counter is explicit and
// iterative; Retry-After sleeps go through the injected clock.
func (m *Manager) refresh(ctx context.Context) (Token, error) {
	for attempt := 1; attempt <= maxMintAttempts; attempt++ {
		token, err := m.source.Mint(ctx)
		if err == nil {
			token.IssuedAt = m.clock.Now()
			if saveErr := m.store.Save(ctx, m.source.Service(), token); saveErr != nil {
				// A failed cache write costs a refresh next run, nothing more.
				m.logger.Warn("Failed to persist token", zap.Error(saveErr))
			}
			m.logger.Info("Minted new token", zap.Int("attempt", attempt))
			return token, nil
		}

		var rateLimited *RateLimitError
		if !errors.As(err, &rateLimited) {
			return Token{}, fmt.Errorf("%w: %v", shared.ErrAuthUnavailable, err)
		}

		if attempt == maxMintAttempts {
			break
		}

		retryAfter := rateLimited.RetryAfter
		if retryAfter <= 0 {
			retryAfter = defaultRetryAfter
		}
		m.logger.Warn("Token request rate limited",
			zap.Int("attempt", attempt),
			zap.Duration("retry_after", retryAfter),
		)
		if err := m.clock.Sleep(ctx, retryAfter); err != nil {
			return Token{}, err
		}
	}

	return Token{}, fmt.Errorf("%w: rate limited on %d consecutive attempts",
		shared.ErrAuthUnavailable, maxMintAttempts)
}
