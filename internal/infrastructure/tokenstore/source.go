package tokenstore

import (
	"context"
	"fmt"
	"time"
)

// Source mints a fresh token from a service's identity endpoint. Each
// external service (storage, ERP) provides its own implementation.
type Source interface {
	// Service names the service the tokens belong to; it keys the cache.
	Service() string
	// Mint requests a new token. Rate-limited responses are reported as
	// *RateLimitError so the manager can honor the Retry-After signal;
	// any other failure is terminal for the attempt.
	Mint(ctx context.Context) (Token, error)
}

// RateLimitError reports an HTTP 429 from an identity endpoint together
// with the server's requested backoff.
type RateLimitError struct {
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}
