package browser

import (
	"context"
	"sync"
	"time"
)

// Throttle enforces a minimum delay between consecutive remote
// requests so the upstream site doesn't soft-block the scraper.
type Throttle struct {
	mu       sync.Mutex
	minDelay time.Duration
	last     time.Time
}

func NewThrottle(minDelay time.Duration) *Throttle {
	return &Throttle{minDelay: minDelay}
}

// blocks until at least the minimum delay has passed since the
// previous call returned
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.minDelay > 0 && !t.last.IsZero() {
		remaining := t.minDelay - time.Since(t.last)
		if remaining > 0 {
			select {
			case <-time.After(remaining):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	t.last = time.Now()
	return nil
}
