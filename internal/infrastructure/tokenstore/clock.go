package tokenstore

import (
	"context"
	"time"
)

// Clock abstracts time and sleeping so retry behavior is unit-testable
// without real delays.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until the context is cancelled, in which case
	// it returns the context's error.
	Sleep(ctx context.Context, d time.Duration) error
}

// realClock is the production Clock.
type realClock struct{}

// NewRealClock returns a Clock backed by the system clock.
func NewRealClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
